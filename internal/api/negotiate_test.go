package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptsJSON(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", true},
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"*/*", true},
		{"application/*", true},
		{"text/html, application/xhtml+xml, */*;q=0.8", true},
		{"text/html", false},
		{"text/*", false},
		{"application/xml", false},
		{"application/json;q=0", false},
		{"application/json;q=0, text/html", false},
		{"*/*;q=0.0", false},
		{"application/json;q=abc", false},
		{"garbage;;", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, acceptsJSON(tt.header))
		})
	}
}
