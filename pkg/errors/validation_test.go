package errors

import (
	"testing"
)

func TestValidateReference(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "U1", false},
		{"valid underscore", "J_USB1", false},
		{"valid long", "CRYSTAL12", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 100)), true},
		{"space", "U 1", true},
		{"tab", "U\t1", true},
		{"null byte", "U\x001", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReference(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReference(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidBoard) {
				t.Errorf("ValidateReference(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidBoard)
			}
		})
	}
}

func TestValidateBoardName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty allowed", "", false},
		{"plain", "remote-control rev B", false},
		{"control char", "board\x01", true},
		{"too long", string(make([]byte, 300)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBoardName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBoardName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/board.layout.json", false},
		{"absolute", "/tmp/board.svg", false},
		{"dotted name", "board..v2.svg", false},

		{"empty", "", true},
		{"traversal", "out/../../etc/passwd", true},
		{"null byte", "out\x00.svg", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
