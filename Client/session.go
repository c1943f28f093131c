package Client

// Session carries the authenticated state for one client run: the API base
// URL, the bearer token and the current actor. It replaces ambient module
// state so its lifecycle is explicit: the token is set by Login and cleared
// by Logout.
type Session struct {
	BaseURL         string
	Token           string
	User            *User
	RememberedEmail string
	Language        string // pt|en, used for notification text
}

// NewSession creates a session pointing at the given API base URL.
func NewSession(baseURL string) *Session {
	return &Session{
		BaseURL:  baseURL,
		Language: "en",
	}
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token != ""
}

// SetUser stores the current actor after a successful login.
func (s *Session) SetUser(token string, user *User) {
	s.Token = token
	s.User = user
}

// Clear drops the token and actor at logout. The remembered email survives
// on purpose.
func (s *Session) Clear() {
	s.Token = ""
	s.User = nil
}
