package internal

import (
	"errors"
	"testing"

	"github.com/goplus/xsltpkg/mod/module"
)

func TestTestReference(t *testing.T) {
	tests := []struct {
		args    []string
		want    string
		wantErr error
	}{
		{nil, "libxslt/1.1.29@me/dev", nil},
		{[]string{"libxslt/1.1.29@ci/stable"}, "libxslt/1.1.29@ci/stable", nil},
		{[]string{"libxslt/1.1.29"}, "libxslt/1.1.29@me/dev", nil},
		{[]string{"libxml2/2.9.4@vitallium/testing"}, "", module.ErrInvalidReference},
		{[]string{"libxslt/1.1.28@vitallium/testing"}, "", module.ErrInvalidReference},
		{[]string{"not a reference"}, "", module.ErrInvalidReference},
	}
	for _, tt := range tests {
		ref, err := testReference(tt.args, "me", "dev")
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("testReference(%q) error = %v, want %v", tt.args, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("testReference(%q) error = %v", tt.args, err)
			continue
		}
		if ref.String() != tt.want {
			t.Errorf("testReference(%q) = %s, want %s", tt.args, ref, tt.want)
		}
	}
}
