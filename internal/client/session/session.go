// Package session holds the client's token pair and answers whether the
// access token is still worth sending.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway widens the expiry check so a token about to lapse mid-request
// is refreshed up front instead of bouncing off a 401.
const expiryLeeway = 30 * time.Second

// Session is safe for concurrent use; the API client reads it from request
// goroutines while the shell writes it after signin and refresh.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	username     string
}

func New() *Session {
	return &Session{}
}

func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *Session) SetUsername(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = name
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

// Clear drops both tokens, signing the client out locally.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.username = ""
}

// AccessExpired reports whether the access token has lapsed (or will within
// the leeway). The signature is not verified here; only the server can do
// that, this is a local hint for proactive refresh. A token that cannot be
// parsed counts as expired.
func (s *Session) AccessExpired(now time.Time) bool {
	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	if token == "" {
		return true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !now.Add(expiryLeeway).Before(exp.Time)
}
