package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "My Project", "my-project"},
		{"punctuation runs", "Hello,   World!!", "hello-world"},
		{"trim hyphens", "--Edge--", "edge"},
		{"underscores", "snake_case_name", "snake-case-name"},
		{"digits", "API v2.1", "api-v2-1"},
		{"non-ascii", "Café Guide", "caf-guide"},
		{"nothing usable", "!!!", "project"},
		{"empty", "", "project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSlug(tt.in))
		})
	}
}
