// Package memory implements the storage interface with in-process maps. It is
// used by tests and by local development without a database.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/askstack/askstack/pkg/domain"
	"github.com/askstack/askstack/pkg/errors"
	"github.com/askstack/askstack/pkg/storage"
)

// Store is an in-memory storage.Store. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	questions map[int64]domain.Question
	answers   map[int64]domain.Answer
	accounts  map[string]domain.Account // keyed by email
	sessions  map[string]domain.Session // keyed by client id

	nextQuestionID int64
	nextAnswerID   int64
	nextAccountID  int64

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		questions: make(map[int64]domain.Question),
		answers:   make(map[int64]domain.Answer),
		accounts:  make(map[string]domain.Account),
		sessions:  make(map[string]domain.Session),
		now:       time.Now,
	}
}

// SetClock overrides the store's clock. Tests use this to make creation
// timestamps deterministic.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) AddQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextQuestionID++
	q.ID = s.nextQuestionID
	q.CreatedOn = s.now().UTC()
	q.Tags = append([]string{}, q.Tags...)
	s.questions[q.ID] = q
	return q, nil
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, errors.NewNotFoundError("question", strconv.FormatInt(id, 10))
	}
	return q, nil
}

func (s *Store) ListQuestions(_ context.Context, page storage.Page, filter storage.QuestionFilter) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page = page.Normalize()
	all := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if filter.Tag != "" && !q.HasTag(filter.Tag) {
			continue
		}
		all = append(all, q)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedOn.Equal(all[j].CreatedOn) {
			return all[i].CreatedOn.Before(all[j].CreatedOn)
		}
		return all[i].ID < all[j].ID
	})
	return window(all, page), nil
}

func (s *Store) UpdateQuestion(_ context.Context, id int64, patch domain.QuestionPatch) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, errors.NewNotFoundError("question", strconv.FormatInt(id, 10))
	}
	if patch.Title != nil {
		q.Title = *patch.Title
	}
	if patch.Content != nil {
		q.Content = *patch.Content
	}
	if patch.Tags != nil {
		q.Tags = append([]string{}, (*patch.Tags)...)
	}
	s.questions[id] = q
	return q, nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return errors.NewNotFoundError("question", strconv.FormatInt(id, 10))
	}
	delete(s.questions, id)
	for aid, a := range s.answers {
		if a.QuestionID == id {
			delete(s.answers, aid)
		}
	}
	return nil
}

func (s *Store) AddAnswer(_ context.Context, a domain.Answer) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[a.QuestionID]; !ok {
		return domain.Answer{}, errors.NewConstraintViolationError("answer",
			"question "+strconv.FormatInt(a.QuestionID, 10))
	}
	s.nextAnswerID++
	a.ID = s.nextAnswerID
	a.CreatedOn = s.now().UTC()
	s.answers[a.ID] = a
	return a, nil
}

func (s *Store) ListAnswers(_ context.Context, questionID int64, page storage.Page) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page = page.Normalize()
	all := make([]domain.Answer, 0)
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedOn.Equal(all[j].CreatedOn) {
			return all[i].CreatedOn.Before(all[j].CreatedOn)
		}
		return all[i].ID < all[j].ID
	})
	return window(all, page), nil
}

func (s *Store) UpdateAnswer(_ context.Context, id int64, content string) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[id]
	if !ok {
		return domain.Answer{}, errors.NewNotFoundError("answer", strconv.FormatInt(id, 10))
	}
	a.Content = content
	s.answers[id] = a
	return a, nil
}

func (s *Store) DeleteAnswer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.answers[id]; !ok {
		return errors.NewNotFoundError("answer", strconv.FormatInt(id, 10))
	}
	delete(s.answers, id)
	return nil
}

func (s *Store) AddAccount(_ context.Context, acct domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acct.Email]; ok {
		return domain.Account{}, errors.NewAlreadyExistsError("account", "email", acct.Email)
	}
	s.nextAccountID++
	acct.ID = s.nextAccountID
	acct.CreatedOn = s.now().UTC()
	s.accounts[acct.Email] = acct
	return acct, nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[email]
	if !ok {
		return domain.Account{}, errors.NewNotFoundError("account", email)
	}
	return acct, nil
}

func (s *Store) AddSession(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ClientID] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, clientID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[clientID]
	if !ok {
		return domain.Session{}, errors.NewNotFoundError("session", clientID)
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, clientID)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func window[T any](all []T, page storage.Page) []T {
	if page.Offset >= len(all) {
		return []T{}
	}
	end := page.Offset + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Offset:end]
}
