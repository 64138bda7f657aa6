package model

import "time"

// UserProfile is the patient's account data.
type UserProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
	BloodGroup  string `json:"bloodGroup,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	Address     *string `json:"address,omitempty"`
	BloodGroup  *string `json:"bloodGroup,omitempty"`
}

// Credentials are submitted on the login page.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is submitted on the signup page.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// AuthResult is returned by the backend on login.
type AuthResult struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// Session binds a portal session id to the backend token of a logged-in user.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	BackendToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Avatar describes a stored profile picture.
// This is a pure domain model with no database-specific dependencies or tags.
type Avatar struct {
	UserID      string    `json:"-"`
	StoragePath string    `json:"-"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
}
