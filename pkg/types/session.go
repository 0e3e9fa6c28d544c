package types

// SessionState is the resolution state of the current user and role.
type SessionState int

const (
	SessionLoading SessionState = iota
	SessionResolved
	SessionFailed
)

// Session is passed explicitly to the access gate and the lifecycle engine.
// Role is nil until resolved, and stays nil when resolution failed.
type Session struct {
	State           SessionState
	IsAuthenticated bool
	Email           string
	Role            *Role
	Status          UserStatus
	User            *User
}

func (s *Session) Actor() *Actor {
	if s == nil || !s.IsAuthenticated || s.User == nil {
		return nil
	}
	return s.User.Actor()
}

// SessionClaims are stored inside the encrypted session cookie.
type SessionClaims struct {
	Email     string `json:"email"`
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
}
