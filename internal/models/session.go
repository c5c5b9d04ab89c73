package models

// Session is the signed-in identity a request acts for.
type Session struct {
	// UserID is the lowercased email; users are keyed by it.
	UserID      string
	Email       string
	UID         string
	DisplayName string
	PhotoURL    string
	IsAdmin     bool
}

// SignedIn reports whether s carries an identity.
func (s *Session) SignedIn() bool {
	return s != nil && s.UserID != ""
}

// NewSession builds a session keyed by the lowercased email.
func NewSession(uid, email, displayName, photoURL string, isAdmin bool) *Session {
	return &Session{
		UserID:      UserKey(email),
		Email:       email,
		UID:         uid,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		IsAdmin:     isAdmin,
	}
}
