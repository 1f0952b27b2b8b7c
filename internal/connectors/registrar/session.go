package registrar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
	"github.com/coursewatch/coursewatch/internal/logger"
)

// expirySlack refreshes sessions slightly before their reported expiry so an
// in-flight request doesn't straddle the deadline.
const expirySlack = 30 * time.Second

// SessionManager owns the upstream session credential. All access goes
// through EnsureValid and Invalidate; the session value is never exposed for
// mutation. At most one refresh is in flight at a time - concurrent callers
// during a refresh await its result instead of stampeding the login endpoint.
type SessionManager struct {
	login driven.LoginClient
	now   func() time.Time

	mu         sync.Mutex
	current    domain.Session
	inflight   chan struct{} // non-nil while a refresh runs
	refreshErr error
}

// NewSessionManager creates a session manager backed by the given login flow.
func NewSessionManager(login driven.LoginClient) *SessionManager {
	return &SessionManager{
		login: login,
		now:   time.Now,
	}
}

// EnsureValid returns a usable session, transparently refreshing when the
// held one is absent, expired, or was invalidated by a caller. Refresh
// failure surfaces as domain.ErrInvalidSession.
func (m *SessionManager) EnsureValid(ctx context.Context) (domain.Session, error) {
	for {
		m.mu.Lock()

		if m.usable() {
			sess := m.current
			m.mu.Unlock()
			return sess, nil
		}

		if m.inflight != nil {
			// A refresh is already running; await its outcome.
			done := m.inflight
			m.mu.Unlock()

			select {
			case <-ctx.Done():
				return domain.Session{}, ctx.Err()
			case <-done:
			}

			m.mu.Lock()
			if err := m.refreshErr; err != nil {
				m.mu.Unlock()
				return domain.Session{}, err
			}
			if m.usable() {
				sess := m.current
				m.mu.Unlock()
				return sess, nil
			}
			// Refreshed session was invalidated already; go again.
			m.mu.Unlock()
			continue
		}

		// This caller performs the refresh. The login call runs outside
		// the lock so waiters can queue on the inflight channel.
		done := make(chan struct{})
		m.inflight = done
		m.mu.Unlock()

		sess, err := m.login.Login(ctx)

		m.mu.Lock()
		if err != nil {
			m.current = domain.Session{}
			m.refreshErr = fmt.Errorf("%w: %w", domain.ErrInvalidSession, err)
		} else {
			m.current = sess
			m.refreshErr = nil
			logger.Debug("Session refreshed, expires %s", sess.ExpiresAt.Format(time.RFC3339))
		}
		result := m.refreshErr
		m.inflight = nil
		m.mu.Unlock()
		close(done)

		if result != nil {
			return domain.Session{}, result
		}
		return sess, nil
	}
}

// Invalidate marks the given session unusable so the next EnsureValid
// performs a refresh. A stale invalidate - the session was already replaced -
// is a no-op, so a slow caller cannot kill its successor.
func (m *SessionManager) Invalidate(sess domain.Session) {
	m.mu.Lock()
	if !m.current.Zero() && m.current.Token == sess.Token {
		logger.Debug("Session invalidated by caller")
		m.current = domain.Session{}
	}
	m.mu.Unlock()
}

// usable reports whether the held session can be handed out.
// Callers must hold the lock.
func (m *SessionManager) usable() bool {
	if m.current.Zero() {
		return false
	}
	return !m.current.Expired(m.now().Add(expirySlack))
}
