package domain

import "time"

// Session is an upstream credential obtained from the registrar login flow.
// It is owned by the session manager; callers treat it as an opaque value and
// report rejections via Invalidate rather than mutating it.
type Session struct {
	// Token is the session credential attached to each request.
	Token string

	// IssuedAt is when the session was obtained.
	IssuedAt time.Time

	// ExpiresAt is the upstream-reported expiry. Zero means unknown, in
	// which case the session is trusted until the upstream rejects it.
	ExpiresAt time.Time
}

// Expired reports whether the session is past its known expiry at the given
// instant. Sessions with unknown expiry are never considered expired here.
func (s Session) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Zero reports whether the session is absent.
func (s Session) Zero() bool {
	return s.Token == ""
}
