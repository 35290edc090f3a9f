package domain

import "time"

// DefaultProfileImageURL is assigned to new accounts until they upload one.
const DefaultProfileImageURL = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// User is an account. It stays disabled until its email is verified.
type User struct {
	Auditable
	UserID            string     `json:"user_id"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone,omitempty"`
	Bio               string     `json:"bio,omitempty"`
	ProfileImageURL   string     `json:"image_url,omitempty"`
	LoginAttempts     int        `json:"login_attempts"`
	LastLoginAt       *time.Time `json:"last_login,omitempty"`
	AccountNonExpired bool       `json:"account_non_expired"`
	AccountNonLocked  bool       `json:"account_non_locked"`
	Enabled           bool       `json:"enabled"`
	MFAEnabled        bool       `json:"mfa"`
	QRCodeSecret      string     `json:"-"`
	QRCodeImageURI    string     `json:"qr_code_image_uri,omitempty"`
	RoleID            string     `json:"role_id"`
	Role              *Role      `json:"role,omitempty"`
}

// Credential holds the password hash of a user. It is created together with
// the user and removed with it.
type Credential struct {
	Auditable
	UserID       string `json:"user_id"`
	PasswordHash string `json:"-"`
}

// Confirmation is a single-use verification token bound to one user.
type Confirmation struct {
	Auditable
	Key    string `json:"-"`
	UserID string `json:"user_id"`
}

// Expired reports whether the confirmation is older than ttl at now.
// A non-positive ttl never expires.
func (c *Confirmation) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 || c.CreatedAt.IsZero() {
		return false
	}
	return now.After(c.CreatedAt.Add(ttl))
}
