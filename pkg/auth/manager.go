// Package auth manages accounts and session credentials. Passwords are
// hashed with argon2id; sessions are opaque client id / client secret pairs
// whose secret is stored only as a SHA-256 digest.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askstack/askstack/pkg/config"
	"github.com/askstack/askstack/pkg/domain"
	"github.com/askstack/askstack/pkg/errors"
	"github.com/askstack/askstack/pkg/httputil"
	"github.com/askstack/askstack/pkg/logging"
	"github.com/askstack/askstack/pkg/storage"
)

const secretLen = 32 // bytes of entropy in a client secret

// Credential is the session material handed to a client exactly once, at
// login. The secret is never stored or shown again.
type Credential struct {
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Token renders the credential as the opaque bearer token clients send back.
func (c Credential) Token() string {
	return c.ClientID + ":" + c.ClientSecret
}

// Manager implements registration, login, session validation and revocation
// on top of a storage.Store.
type Manager struct {
	store  storage.Store
	cfg    config.AuthConfig
	logger *logging.ColoredLogger
	now    func() time.Time
	verify func(encoded, password string) (bool, error)
}

// NewManager creates a credential manager.
func NewManager(store storage.Store, cfg config.AuthConfig, logger *logging.ColoredLogger) *Manager {
	return &Manager{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		verify: VerifyPassword,
	}
}

// Register creates a new account. The email must be well-formed and unused;
// the password must be non-empty.
func (m *Manager) Register(ctx context.Context, email, password string) (domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !httputil.ValidateEmail(email) {
		return domain.Account{}, errors.NewValidationError("email", "must be a valid email address")
	}
	if password == "" {
		return domain.Account{}, errors.NewValidationError("password", "must not be empty")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return domain.Account{}, err
	}

	acct, err := m.store.AddAccount(ctx, domain.Account{Email: email, PasswordHash: hash})
	if err != nil {
		return domain.Account{}, err
	}

	m.logger.ComponentInfo(logging.ComponentAuth, "account registered",
		zap.String("email", acct.Email))
	return acct, nil
}

// Login verifies the email/password pair and, on success, issues a fresh
// session credential. Unknown email and wrong password are indistinguishable
// to the caller.
func (m *Manager) Login(ctx context.Context, email, password string) (Credential, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acct, err := m.store.GetAccountByEmail(ctx, email)
	if err != nil {
		var nf *errors.NotFoundError
		if errors.As(err, &nf) {
			// Burn a hash anyway so a missing account is not observably
			// faster than a wrong password.
			_, _ = m.verify(burnHash, password)
			return Credential{}, errors.NewInvalidCredentialsError()
		}
		return Credential{}, err
	}

	ok, err := m.verify(acct.PasswordHash, password)
	if err != nil {
		return Credential{}, err
	}
	if !ok {
		m.logger.ComponentWarn(logging.ComponentAuth, "failed login attempt",
			zap.String("email", email))
		return Credential{}, errors.NewInvalidCredentialsError()
	}

	cred, sess, err := m.issueSession(acct.Email)
	if err != nil {
		return Credential{}, err
	}
	if err := m.store.AddSession(ctx, sess); err != nil {
		return Credential{}, err
	}

	m.logger.ComponentInfo(logging.ComponentAuth, "session issued",
		zap.String("email", acct.Email),
		zap.String("client_id", cred.ClientID),
		zap.Time("expires_at", cred.ExpiresAt))
	return cred, nil
}

// Validate checks an opaque bearer token of the form client_id:client_secret
// and returns the live session it names. Expired sessions are rejected and
// removed.
func (m *Manager) Validate(ctx context.Context, token string) (domain.Session, error) {
	clientID, secret, ok := strings.Cut(token, ":")
	if !ok || clientID == "" || secret == "" {
		return domain.Session{}, errors.NewUnauthorizedError("malformed session token")
	}

	sess, err := m.store.GetSession(ctx, clientID)
	if err != nil {
		var nf *errors.NotFoundError
		if errors.As(err, &nf) {
			return domain.Session{}, errors.NewUnauthorizedError("unknown session")
		}
		return domain.Session{}, err
	}

	if !verifySecret(sess.SecretHash, secret) {
		return domain.Session{}, errors.NewUnauthorizedError("invalid session secret")
	}
	if sess.IsExpired(m.now()) {
		_ = m.store.DeleteSession(ctx, clientID)
		return domain.Session{}, errors.NewUnauthorizedError("session expired")
	}
	return sess, nil
}

// Revoke invalidates the session named by token. Revoking an unknown or
// already-revoked session succeeds.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	clientID, _, ok := strings.Cut(token, ":")
	if !ok || clientID == "" {
		return errors.NewUnauthorizedError("malformed session token")
	}
	if err := m.store.DeleteSession(ctx, clientID); err != nil {
		return err
	}
	m.logger.ComponentInfo(logging.ComponentAuth, "session revoked",
		zap.String("client_id", clientID))
	return nil
}

// SweepExpired removes sessions whose expiry has passed.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, m.now())
}

// RunSweeper purges expired sessions on the configured interval until the
// context is cancelled.
func (m *Manager) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.SweepExpired(ctx)
			if err != nil {
				m.logger.ComponentWarn(logging.ComponentAuth, "session sweep failed",
					zap.Error(err))
				continue
			}
			if removed > 0 {
				m.logger.ComponentDebug(logging.ComponentAuth, "expired sessions purged",
					zap.Int64("count", removed))
			}
		}
	}
}

func (m *Manager) issueSession(email string) (Credential, domain.Session, error) {
	secret := make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return Credential{}, domain.Session{}, errors.Wrap(err, "generate session secret")
	}

	now := m.now().UTC()
	cred := Credential{
		ClientID:     uuid.NewString(),
		ClientSecret: hex.EncodeToString(secret),
		ExpiresAt:    now.Add(m.cfg.SessionTTL),
	}
	sess := domain.Session{
		ClientID:   cred.ClientID,
		SecretHash: hashSecret(cred.ClientSecret),
		OwnerEmail: email,
		IssuedAt:   now,
		ExpiresAt:  cred.ExpiresAt,
	}
	return cred, sess, nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func verifySecret(storedHash, secret string) bool {
	sum := sha256.Sum256([]byte(secret))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}

// burnHash is a valid argon2id hash of an unguessable value, used to equalize
// login timing when the account does not exist.
var burnHash = func() string {
	h, err := HashPassword(uuid.NewString())
	if err != nil {
		panic(err)
	}
	return h
}()
