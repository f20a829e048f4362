// Package storage defines the persistence interface for questions, answers,
// accounts and sessions. Implementations live in the postgres and memory
// subpackages.
package storage

import (
	"context"
	"time"

	"github.com/askstack/askstack/pkg/domain"
)

const (
	// DefaultLimit is the page size used when the caller does not ask for one.
	DefaultLimit = 20
	// MaxLimit caps the page size regardless of what the caller asks for.
	MaxLimit = 100
)

// Page describes an offset/limit window over a listing. The zero value means
// "first page, default size".
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// QuestionFilter narrows a question listing. An empty filter matches all
// questions.
type QuestionFilter struct {
	Tag string // match questions carrying this tag (already normalized)
}

// Store is the persistence boundary of the service. All listings are ordered
// by creation time ascending with id as a tie-break, so pagination is stable.
type Store interface {
	// AddQuestion persists a new question and returns it with its assigned
	// id and creation timestamp.
	AddQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	// GetQuestion returns the question with the given id, or a not-found
	// error.
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	// ListQuestions returns a page of questions matching the filter.
	ListQuestions(ctx context.Context, page Page, filter QuestionFilter) ([]domain.Question, error)
	// UpdateQuestion applies the patch to an existing question and returns
	// the updated row.
	UpdateQuestion(ctx context.Context, id int64, patch domain.QuestionPatch) (domain.Question, error)
	// DeleteQuestion removes a question together with its answers.
	DeleteQuestion(ctx context.Context, id int64) error

	// AddAnswer persists a new answer. The referenced question must exist.
	AddAnswer(ctx context.Context, a domain.Answer) (domain.Answer, error)
	// ListAnswers returns a page of answers for the given question.
	ListAnswers(ctx context.Context, questionID int64, page Page) ([]domain.Answer, error)
	// UpdateAnswer replaces an answer's content and returns the updated row.
	UpdateAnswer(ctx context.Context, id int64, content string) (domain.Answer, error)
	// DeleteAnswer removes a single answer.
	DeleteAnswer(ctx context.Context, id int64) error

	// AddAccount persists a new account. Emails are unique.
	AddAccount(ctx context.Context, acct domain.Account) (domain.Account, error)
	// GetAccountByEmail returns the account registered under email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// AddSession persists an issued session credential.
	AddSession(ctx context.Context, s domain.Session) error
	// GetSession returns the session with the given client id.
	GetSession(ctx context.Context, clientID string) (domain.Session, error)
	// DeleteSession removes a session. Deleting an absent session is not an
	// error.
	DeleteSession(ctx context.Context, clientID string) error
	// DeleteExpiredSessions purges sessions that expired before now and
	// returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
	// Close releases the store's resources.
	Close() error
}
