package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowStub feeds fixed column values into scanQuestion.
type rowStub struct {
	id      int64
	title   string
	content string
	created time.Time
	tags    string
}

func (r rowStub) Scan(dest ...any) error {
	*dest[0].(*int64) = r.id
	*dest[1].(*string) = r.title
	*dest[2].(*string) = r.content
	*dest[3].(*time.Time) = r.created
	*dest[4].(*string) = r.tags
	return nil
}

func TestScanQuestionSplitsTags(t *testing.T) {
	q, err := scanQuestion(rowStub{
		id:      7,
		title:   "t",
		content: "c",
		created: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		tags:    "go,sql",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), q.ID)
	assert.Equal(t, []string{"go", "sql"}, q.Tags)
}

func TestScanQuestionEmptyTagsIsNotNil(t *testing.T) {
	q, err := scanQuestion(rowStub{id: 7, title: "t", content: "c"})
	require.NoError(t, err)

	// Both storage backends must serve "tags": [] for an untagged question.
	require.NotNil(t, q.Tags)
	assert.Empty(t, q.Tags)
}
