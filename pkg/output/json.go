package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormat writes v as indented JSON.
func JSONFormat(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
