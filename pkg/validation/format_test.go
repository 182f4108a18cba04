package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{name: "Valid pretty format", format: "pretty"},
		{name: "Valid csv format", format: "csv"},
		{name: "Valid json format", format: "json"},
		{name: "Empty format", format: "", expectErr: true},
		{name: "Case sensitive - uppercase", format: "PRETTY", expectErr: true},
		{name: "Case sensitive - CSV uppercase", format: "CSV", expectErr: true},
		{name: "Leading/trailing spaces", format: " pretty ", expectErr: true},
		{name: "XML format not supported", format: "xml", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateOutputFormat(%q) expected error, got nil", tt.format)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateOutputFormat(%q) unexpected error: %v", tt.format, err)
			}
		})
	}
}

func TestValidateMode(t *testing.T) {
	tests := []struct {
		mode      string
		expectErr bool
	}{
		{mode: "simulate"},
		{mode: "montecarlo"},
		{mode: "monte-carlo", expectErr: true},
		{mode: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			if err := ValidateMode(tt.mode); (err != nil) != tt.expectErr {
				t.Errorf("ValidateMode(%q) error = %v, expectErr %v", tt.mode, err, tt.expectErr)
			}
		})
	}
}
