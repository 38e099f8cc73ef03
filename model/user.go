package model

// User is a row of the catalog's users table. Password is either the
// scanner's cleartext value or a bcrypt hash.
type User struct {
	Username string `json:"username"`
	Password string `json:"-"` // Not exposed in API responses
}
