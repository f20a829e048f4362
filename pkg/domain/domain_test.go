package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"lowercased and sorted", []string{"Go", "SQL"}, []string{"go", "sql"}},
		{"trimmed", []string{"  http  "}, []string{"http"}},
		{"case-insensitive dedup", []string{"Rust", "rust", "RUST"}, []string{"rust"}},
		{"empties dropped", []string{"", "  ", "go"}, []string{"go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.in))
		})
	}
}

func TestHasTag(t *testing.T) {
	q := Question{Tags: []string{"go", "sql"}}
	assert.True(t, q.HasTag("go"))
	assert.False(t, q.HasTag("rust"))
	assert.False(t, q.HasTag("GO")) // tags are matched post-normalization
}

func TestQuestionPatchIsZero(t *testing.T) {
	assert.True(t, QuestionPatch{}.IsZero())

	title := "t"
	assert.False(t, QuestionPatch{Title: &title}.IsZero())

	empty := []string{}
	assert.False(t, QuestionPatch{Tags: &empty}.IsZero())
}

func TestSessionIsExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, s.IsExpired(now))
	assert.True(t, s.IsExpired(now.Add(2*time.Hour)))
}
