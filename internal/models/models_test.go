package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionPercent(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{"no lectures", 0, 0, 0},
		{"nothing done", 0, 4, 0},
		{"half done", 2, 4, 50},
		{"all done", 4, 4, 100},
		{"rounds down", 1, 3, 33},
		{"rounds up", 2, 3, 67},
		{"curriculum grew", 2, 5, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompletionPercent(tt.completed, tt.total))
		})
	}
}
