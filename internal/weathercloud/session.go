package weathercloud

import (
	"net/http"
	"sync"
)

// Credentials is the mail/password pair used against the sign-in form.
type Credentials struct {
	Mail     string `json:"mail" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CredentialStore persists credentials across process restarts when the
// caller opted in at login time.
type CredentialStore interface {
	Save(creds Credentials) error
	Load() (Credentials, error)
	Clear() error
}

// Session holds the cookie state shared by every operation of a client.
// The remote service owns cookie expiry; a stale session is only
// discovered when a gated call fails remotely.
type Session struct {
	mu      sync.RWMutex
	cookies []*http.Cookie
	creds   *Credentials
	store   CredentialStore
}

// NewSession returns an empty session. store may be nil when credential
// persistence is not wanted.
func NewSession(store CredentialStore) *Session {
	return &Session{store: store}
}

// Cookies returns a copy of the current cookie set.
func (s *Session) Cookies() []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*http.Cookie, len(s.cookies))
	copy(out, s.cookies)
	return out
}

// Authenticated reports whether a login has populated the session.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cookies) > 0
}

// SetCookies replaces the session state with the cookies parsed from raw
// Set-Cookie header values. At least one header must parse, otherwise the
// call reports false and the previous state stays untouched. When creds
// is non-nil the pair is remembered alongside the cookies.
func (s *Session) SetCookies(raw []string, creds *Credentials) bool {
	var parsed []*http.Cookie
	for _, h := range raw {
		// Response.Cookies is the pre-Go 1.23 form of http.ParseSetCookie;
		// both run the stdlib Set-Cookie parser, and an invalid line yields
		// no cookie here just as it yields an error there.
		cs := (&http.Response{Header: http.Header{"Set-Cookie": {h}}}).Cookies()
		if len(cs) == 0 {
			continue
		}
		parsed = append(parsed, cs[0])
	}
	if len(parsed) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cookies = parsed
	if creds != nil {
		c := *creds
		s.creds = &c
	}
	return true
}

// Persist writes the remembered credentials through to the configured
// store. Without a store or remembered pair it is a no-op.
func (s *Session) Persist() error {
	s.mu.RLock()
	creds, store := s.creds, s.store
	s.mu.RUnlock()

	if store == nil || creds == nil {
		return nil
	}
	return store.Save(*creds)
}

// Remembered returns credentials usable for a fresh login: the in-memory
// pair when a login happened in this process, otherwise whatever the
// store holds.
func (s *Session) Remembered() (Credentials, bool) {
	s.mu.RLock()
	creds, store := s.creds, s.store
	s.mu.RUnlock()

	if creds != nil {
		return *creds, true
	}
	if store == nil {
		return Credentials{}, false
	}
	c, err := store.Load()
	if err != nil {
		return Credentials{}, false
	}
	return c, true
}

// Clear drops the cookies and forgets the credentials, in memory and in
// the store.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.cookies = nil
	s.creds = nil
	store := s.store
	s.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.Clear()
}
