package chat

import "github.com/itelinc/incuchat/internal/config"

// Session identifies the local user for the duration of a client run. It is
// passed explicitly to every component that needs identity, rather than read
// from ambient state, so stores and coordinators are testable in isolation.
type Session struct {
	// UserID is the portal user record ID.
	UserID int64

	// IncUserID is the incubator-scoped user ID, zero when not applicable.
	IncUserID int64

	// RoleID is the portal role (1-3 incubator side, 4-6 incubatee side).
	RoleID int

	// DisplayName is the human-readable name shown in headers.
	DisplayName string
}

// SessionFromConfig builds a Session from loaded configuration.
func SessionFromConfig(cfg *config.Config) Session {
	return Session{
		UserID:      cfg.Session.UserID,
		IncUserID:   cfg.Session.IncUserID,
		RoleID:      cfg.Session.RoleID,
		DisplayName: cfg.Session.DisplayName,
	}
}

// Incubator reports whether the session user belongs to the incubator side.
func (s Session) Incubator() bool {
	return IsIncubatorRole(s.RoleID)
}
