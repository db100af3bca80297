package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https url", url: "https://example.com", wantErr: false},
		{name: "http url", url: "http://example.com/path?q=1", wantErr: false},
		{name: "missing scheme", url: "example.com", wantErr: true},
		{name: "unsupported scheme", url: "ftp://example.com", wantErr: true},
		{name: "scheme only", url: "https://", wantErr: true},
		{name: "empty", url: "", wantErr: true},
		{name: "not a url", url: "not a url at all", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "400")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEscapeLikePattern(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text untouched", input: "golang", want: "golang"},
		{name: "percent escaped", input: "100%", want: `100\%`},
		{name: "underscore escaped", input: "snake_case", want: `snake\_case`},
		{name: "backslash escaped", input: `a\b`, want: `a\\b`},
		{name: "all specials together", input: `%_\`, want: `\%\_\\`},
		{name: "empty input", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeLikePattern(tt.input))
		})
	}
}
