package registrar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
)

const (
	// SessionCookie is the cookie carrying the registrar session token.
	SessionCookie = "REGISTRARSESSID"

	// DefaultSessionTTL is assumed when the login response carries no
	// explicit expiry. Registrar sessions idle out server-side around the
	// half-hour mark; staying under that keeps refreshes predictable.
	DefaultSessionTTL = 25 * time.Minute

	// loginPath is the registrar login endpoint.
	loginPath = "/api/login"
)

// Ensure LoginFlow implements the port.
var _ driven.LoginClient = (*LoginFlow)(nil)

// LoginFlow obtains registrar sessions with a credential POST.
type LoginFlow struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewLoginFlow creates the login client. The timeout bounds each attempt.
func NewLoginFlow(baseURL, username, password string, timeout time.Duration) *LoginFlow {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LoginFlow{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

// Login performs the credential exchange and returns the resulting session.
func (l *LoginFlow) Login(ctx context.Context) (domain.Session, error) {
	form := url.Values{}
	form.Set("username", l.username)
	form.Set("password", l.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		l.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Session{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := l.http.Do(req)
	if err != nil {
		return domain.Session{}, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the transport can reuse the connection.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return domain.Session{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			URL:        l.baseURL + loginPath,
		}
	}

	now := time.Now()
	for _, cookie := range resp.Cookies() {
		if cookie.Name != SessionCookie || cookie.Value == "" {
			continue
		}
		expires := cookie.Expires
		if expires.IsZero() {
			expires = now.Add(DefaultSessionTTL)
		}
		return domain.Session{
			Token:     cookie.Value,
			IssuedAt:  now,
			ExpiresAt: expires,
		}, nil
	}

	return domain.Session{}, fmt.Errorf("login response carried no %s cookie", SessionCookie)
}
