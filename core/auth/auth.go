package auth

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMissingUser 请求没有携带 u 参数
	ErrMissingUser = errors.New("missing username")
	// ErrNoCredentials 既没有 p 也没有 s+t
	ErrNoCredentials = errors.New("no password or salted token supplied")
	// ErrWrongCredentials 用户名或密码错误
	ErrWrongCredentials = errors.New("wrong username or password")
)

const encPrefix = "enc:"

// Credentials is the auth tuple carried by every request.
type Credentials struct {
	User     string
	Password string // cleartext or "enc:" + hex
	Salt     string
	Token    string
}

// Verifier compares credentials against stored values.
type Verifier interface {
	CheckCredential(ctx context.Context, user, password string) (bool, error)
	CheckCredentialSalted(ctx context.Context, user, token, salt string) (bool, error)
}

// Authenticate checks c against v. A nil return means the user is known and
// the password or token matched. Storage failures are returned wrapped so the
// caller can log them; they still count as a failed login.
func Authenticate(ctx context.Context, v Verifier, c Credentials) error {
	if c.User == "" {
		return ErrMissingUser
	}

	var (
		ok  bool
		err error
	)
	switch {
	case c.Password != "":
		pass, decErr := DecodePassword(c.Password)
		if decErr != nil {
			return fmt.Errorf("%w: %v", ErrWrongCredentials, decErr)
		}
		ok, err = v.CheckCredential(ctx, c.User, pass)
	case c.Salt != "" && c.Token != "":
		ok, err = v.CheckCredentialSalted(ctx, c.User, c.Token, c.Salt)
	default:
		return ErrNoCredentials
	}
	if err != nil {
		return fmt.Errorf("check credentials for %q: %w", c.User, err)
	}
	if !ok {
		return ErrWrongCredentials
	}
	return nil
}

// DecodePassword strips the optional "enc:" prefix and hex-decodes the rest.
func DecodePassword(p string) (string, error) {
	enc, ok := strings.CutPrefix(p, encPrefix)
	if !ok {
		return p, nil
	}
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("decode hex password: %w", err)
	}
	return string(raw), nil
}

// EncodePassword is the inverse of DecodePassword, handy for clients and tests.
func EncodePassword(p string) string {
	return encPrefix + hex.EncodeToString([]byte(p))
}

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsHashed reports whether a stored password is a bcrypt hash rather than
// the scanner's cleartext value.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// MatchPassword compares a cleartext password with a stored one, which may
// be cleartext or bcrypt.
func MatchPassword(stored, password string) bool {
	if IsHashed(stored) {
		return CheckPasswordHash(password, stored)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// Token returns md5(password + salt) in lowercase hex.
func Token(password, salt string) string {
	sum := md5.Sum([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// MatchToken checks a salted token against a stored cleartext password.
// bcrypt-stored users cannot use token auth since the cleartext is unknown.
func MatchToken(stored, token, salt string) bool {
	if IsHashed(stored) {
		return false
	}
	want := Token(stored, salt)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(token))) == 1
}
