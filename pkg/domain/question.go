package domain

import (
	"sort"
	"strings"
	"time"
)

// Question is a posted question. IDs and timestamps are assigned by the
// storage layer on creation and are immutable afterwards.
type Question struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedOn time.Time `json:"created_on"`
}

// QuestionPatch carries a partial update. Nil fields are left untouched.
type QuestionPatch struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p QuestionPatch) IsZero() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil
}

// NormalizeTags lowercases and trims tags, drops empties, and deduplicates
// case-insensitive duplicates. The result is sorted so tag sets compare and
// serialize deterministically.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HasTag reports whether the question carries the given normalized tag.
func (q *Question) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
