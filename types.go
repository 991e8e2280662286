package guidancedesk

import "time"

// Counselor is a counselor credential record. SetupPending marks accounts
// that were registered but have not chosen a password yet; such accounts
// cannot log in until SetupPassword completes.
type Counselor struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	SetupPending bool
	CreatedAt    int64
}

// SessionInfo identifies an authenticated counselor session. ExpiresAt is
// epoch seconds; a session is valid iff its record exists and the current
// time is before ExpiresAt.
type SessionInfo struct {
	SessionID   string
	CounselorID string
	ExpiresAt   int64
}

// Expired reports whether the session is past its expiry at the given
// instant.
func (s SessionInfo) Expired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

// LoginResult is returned by [Engine.Login]. Exactly one of Token or
// RedirectToSetup is meaningful: accounts still in first-time setup get
// RedirectToSetup=true and no session.
type LoginResult struct {
	Token           string
	RedirectToSetup bool
}
