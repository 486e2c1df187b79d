package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_IsProfane(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary)
	req.NoError(err)

	tests := []struct {
		name    string
		input   string
		profane bool
	}{
		{
			name:    "plain word",
			input:   "the badger is here",
			profane: true,
		},
		{
			name:    "uppercase",
			input:   "SNAKE!",
			profane: true,
		},
		{
			name:    "leet speak and internal punctuation",
			input:   "look at B.4.d.g.€r",
			profane: true,
		},
		{
			name:    "clean text",
			input:   "hello everyone",
			profane: false,
		},
		{
			name:    "empty string",
			input:   "",
			profane: false,
		},
		{
			name:    "punctuation only",
			input:   "?!...",
			profane: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.profane, mod.IsProfane(tt.input))
		})
	}
}

func TestNewModerator_EmptyList(t *testing.T) {
	req := require.New(t)

	mod, err := NewModerator(nil)
	req.NoError(err)
	req.False(mod.IsProfane("anything goes"))
}
