package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
		wantHint   string
	}{
		{"default yes, empty answer", "\n", true, true, "[Y/n]"},
		{"default no, empty answer", "\n", false, false, "[y/N]"},
		{"yes", "yes\n", false, true, "[y/N]"},
		{"y with spaces", "  y  \n", false, true, "[y/N]"},
		{"no", "no\n", true, false, "[Y/n]"},
		{"closed input", "", true, false, "[Y/n]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := confirmAction(strings.NewReader(tt.input), &out, "Proceed?", tt.defaultYes)
			if got != tt.want {
				t.Errorf("confirmAction() = %v, want %v", got, tt.want)
			}
			if !strings.HasPrefix(out.String(), "Proceed? "+tt.wantHint+": ") {
				t.Errorf("unexpected prompt: %q", out.String())
			}
		})
	}
}
