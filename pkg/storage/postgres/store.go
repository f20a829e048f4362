// Package postgres implements the storage interface on top of PostgreSQL
// using database/sql with the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/askstack/askstack/pkg/config"
	"github.com/askstack/askstack/pkg/domain"
	"github.com/askstack/askstack/pkg/errors"
	"github.com/askstack/askstack/pkg/storage"
)

// Postgres error codes we translate into typed errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Store is a Postgres-backed storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects to Postgres, configures the pool and applies pending
// migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, errors.NewStorageError("open database", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewStorageError("ping database", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, errors.NewStorageError("migrate database", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle. The caller is responsible for
// running migrations.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AddQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Question{}, errors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`INSERT INTO questions (title, content) VALUES ($1, $2) RETURNING id, created_on`,
		q.Title, q.Content)
	if err := row.Scan(&q.ID, &q.CreatedOn); err != nil {
		return domain.Question{}, errors.NewStorageError("insert question", err)
	}
	if err := insertTags(ctx, tx, q.ID, q.Tags); err != nil {
		return domain.Question{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Question{}, errors.NewStorageError("commit transaction", err)
	}
	return q, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT q.id, q.title, q.content, q.created_on,
		       COALESCE(string_agg(t.tag, ',' ORDER BY t.tag), '')
		FROM questions q
		LEFT JOIN question_tags t ON t.question_id = q.id
		WHERE q.id = $1
		GROUP BY q.id`, id)

	q, err := scanQuestion(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, errors.NewNotFoundError("question", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return domain.Question{}, errors.NewStorageError("select question", err)
	}
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context, page storage.Page, filter storage.QuestionFilter) ([]domain.Question, error) {
	page = page.Normalize()
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.title, q.content, q.created_on,
		       COALESCE(string_agg(t.tag, ',' ORDER BY t.tag), '')
		FROM questions q
		LEFT JOIN question_tags t ON t.question_id = q.id
		WHERE $1 = '' OR EXISTS (
			SELECT 1 FROM question_tags f
			WHERE f.question_id = q.id AND f.tag = $1
		)
		GROUP BY q.id
		ORDER BY q.created_on ASC, q.id ASC
		OFFSET $2 LIMIT $3`,
		filter.Tag, page.Offset, page.Limit)
	if err != nil {
		return nil, errors.NewStorageError("select questions", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, page.Limit)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, errors.NewStorageError("scan question", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("iterate questions", err)
	}
	return questions, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, id int64, patch domain.QuestionPatch) (domain.Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Question{}, errors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE questions
		SET title = COALESCE($2, title), content = COALESCE($3, content)
		WHERE id = $1`,
		id, patch.Title, patch.Content)
	if err != nil {
		return domain.Question{}, errors.NewStorageError("update question", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Question{}, errors.NewStorageError("update question", err)
	}
	if affected == 0 {
		return domain.Question{}, errors.NewNotFoundError("question", strconv.FormatInt(id, 10))
	}

	if patch.Tags != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM question_tags WHERE question_id = $1`, id); err != nil {
			return domain.Question{}, errors.NewStorageError("delete question tags", err)
		}
		if err := insertTags(ctx, tx, id, *patch.Tags); err != nil {
			return domain.Question{}, err
		}
	}

	row := tx.QueryRowContext(ctx, `
		SELECT q.id, q.title, q.content, q.created_on,
		       COALESCE(string_agg(t.tag, ',' ORDER BY t.tag), '')
		FROM questions q
		LEFT JOIN question_tags t ON t.question_id = q.id
		WHERE q.id = $1
		GROUP BY q.id`, id)
	q, err := scanQuestion(row)
	if err != nil {
		return domain.Question{}, errors.NewStorageError("reselect question", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Question{}, errors.NewStorageError("commit transaction", err)
	}
	return q, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	// Tags and answers go with the question via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return errors.NewStorageError("delete question", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewStorageError("delete question", err)
	}
	if affected == 0 {
		return errors.NewNotFoundError("question", strconv.FormatInt(id, 10))
	}
	return nil
}

func (s *Store) AddAnswer(ctx context.Context, a domain.Answer) (domain.Answer, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO answers (question_id, content) VALUES ($1, $2) RETURNING id, created_on`,
		a.QuestionID, a.Content)
	if err := row.Scan(&a.ID, &a.CreatedOn); err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return domain.Answer{}, errors.NewConstraintViolationError("answer",
				fmt.Sprintf("question %d", a.QuestionID))
		}
		return domain.Answer{}, errors.NewStorageError("insert answer", err)
	}
	return a, nil
}

func (s *Store) ListAnswers(ctx context.Context, questionID int64, page storage.Page) ([]domain.Answer, error) {
	page = page.Normalize()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, content, created_on
		FROM answers
		WHERE question_id = $1
		ORDER BY created_on ASC, id ASC
		OFFSET $2 LIMIT $3`,
		questionID, page.Offset, page.Limit)
	if err != nil {
		return nil, errors.NewStorageError("select answers", err)
	}
	defer rows.Close()

	answers := make([]domain.Answer, 0, page.Limit)
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Content, &a.CreatedOn); err != nil {
			return nil, errors.NewStorageError("scan answer", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("iterate answers", err)
	}
	return answers, nil
}

func (s *Store) UpdateAnswer(ctx context.Context, id int64, content string) (domain.Answer, error) {
	var a domain.Answer
	row := s.db.QueryRowContext(ctx, `
		UPDATE answers SET content = $2 WHERE id = $1
		RETURNING id, question_id, content, created_on`,
		id, content)
	if err := row.Scan(&a.ID, &a.QuestionID, &a.Content, &a.CreatedOn); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return domain.Answer{}, errors.NewNotFoundError("answer", strconv.FormatInt(id, 10))
		}
		return domain.Answer{}, errors.NewStorageError("update answer", err)
	}
	return a, nil
}

func (s *Store) DeleteAnswer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM answers WHERE id = $1`, id)
	if err != nil {
		return errors.NewStorageError("delete answer", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewStorageError("delete answer", err)
	}
	if affected == 0 {
		return errors.NewNotFoundError("answer", strconv.FormatInt(id, 10))
	}
	return nil
}

func (s *Store) AddAccount(ctx context.Context, acct domain.Account) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO accounts (email, password_hash) VALUES ($1, $2) RETURNING id, created_on`,
		acct.Email, acct.PasswordHash)
	if err := row.Scan(&acct.ID, &acct.CreatedOn); err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domain.Account{}, errors.NewAlreadyExistsError("account", "email", acct.Email)
		}
		return domain.Account{}, errors.NewStorageError("insert account", err)
	}
	return acct, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	var acct domain.Account
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_on FROM accounts WHERE email = $1`, email)
	if err := row.Scan(&acct.ID, &acct.Email, &acct.PasswordHash, &acct.CreatedOn); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, errors.NewNotFoundError("account", email)
		}
		return domain.Account{}, errors.NewStorageError("select account", err)
	}
	return acct, nil
}

func (s *Store) AddSession(ctx context.Context, sess domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (client_id, secret_hash, owner_email, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sess.ClientID, sess.SecretHash, sess.OwnerEmail, sess.IssuedAt, sess.ExpiresAt)
	if err != nil {
		return errors.NewStorageError("insert session", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, clientID string) (domain.Session, error) {
	var sess domain.Session
	row := s.db.QueryRowContext(ctx, `
		SELECT client_id, secret_hash, owner_email, issued_at, expires_at
		FROM sessions WHERE client_id = $1`, clientID)
	if err := row.Scan(&sess.ClientID, &sess.SecretHash, &sess.OwnerEmail, &sess.IssuedAt, &sess.ExpiresAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, errors.NewNotFoundError("session", clientID)
		}
		return domain.Session{}, errors.NewStorageError("select session", err)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, clientID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE client_id = $1`, clientID); err != nil {
		return errors.NewStorageError("delete session", err)
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, errors.NewStorageError("delete expired sessions", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewStorageError("delete expired sessions", err)
	}
	return affected, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewStorageError("ping database", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (domain.Question, error) {
	var q domain.Question
	var tags string
	if err := row.Scan(&q.ID, &q.Title, &q.Content, &q.CreatedOn, &tags); err != nil {
		return domain.Question{}, err
	}
	// An untagged question still serializes as an empty list, never null.
	q.Tags = []string{}
	if tags != "" {
		q.Tags = strings.Split(tags, ",")
	}
	return q, nil
}

func insertTags(ctx context.Context, tx *sql.Tx, questionID int64, tags []string) error {
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO question_tags (question_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			questionID, tag); err != nil {
			return errors.NewStorageError("insert question tag", err)
		}
	}
	return nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == code
}
