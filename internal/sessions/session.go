package sessions

import "time"

// Session is a refresh session bound to one device. Users can list and revoke them.
type Session struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	RefreshToken string    `bson:"refreshToken" json:"-"`
	UserID       string    `bson:"userId" json:"userId"`
	UserAgent    string    `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	IP           string    `bson:"ip,omitempty" json:"ip,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	LastSeenAt   time.Time `bson:"lastSeenAt" json:"lastSeenAt"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
}

// Device identifies the client that opened a session.
type Device struct {
	UserAgent string
	IP        string
}

func (s *Session) expired(now time.Time) bool { return now.After(s.ExpiresAt) }
