package module

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Reference
		wantErr bool
	}{
		{"libxslt/1.1.29@vitallium/testing", Reference{"libxslt", "1.1.29", "vitallium", "testing"}, false},
		{"libxml2/2.9.4", Reference{Name: "libxml2", Version: "2.9.4"}, false},
		{"libxml2/v2.9.4", Reference{Name: "libxml2", Version: "v2.9.4"}, false},
		{"libxml2", Reference{}, true},
		{"libxml2/2.9.4@vitallium", Reference{}, true},
		{"libxml2/2.9.4@/testing", Reference{}, true},
		{"libxml2/not-a-version", Reference{}, true},
		{"/1.0.0", Reference{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidReference) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidReference", tt.in, err)
				}
				return
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if got.String() != tt.in {
				t.Fatalf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	a := Reference{Name: "libxml2", Version: "2.9.4"}
	b := Reference{Name: "libxml2", Version: "2.10.0"}
	if a.Compare(b) >= 0 {
		t.Fatalf("%s should sort before %s", a, b)
	}
	if a.Compare(a) != 0 {
		t.Fatalf("%s should equal itself", a)
	}
}

func TestEscapePath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantEscaped string
		wantErr     bool
	}{
		{"simple name", "libxslt", "libxslt", false},
		{"nested", "vitallium/libxslt", filepath.Join("vitallium", "libxslt"), false},
		{"empty string", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escaped, err := EscapePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("EscapePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if escaped != tt.wantEscaped {
				t.Errorf("EscapePath() = %v, want %v", escaped, tt.wantEscaped)
			}
		})
	}
}
