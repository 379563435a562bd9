package services

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"food-storefront/models"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	legacyIterations = 1000
	legacyKeyLen     = 64
)

type AdminStore interface {
	// GetAdminUser returns nil, nil when the username is unknown.
	GetAdminUser(ctx context.Context, username string) (*models.AdminUser, error)
	CreateAdminUser(ctx context.Context, username, passwordHash, salt string) error
}

// GenerateSalt returns 16 random bytes hex encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// LegacyPasswordHash is PBKDF2-SHA512 with the salt used as given, hex encoded.
// Admin accounts imported from the old dashboard carry hashes in this form.
func LegacyPasswordHash(password, salt string) string {
	return hex.EncodeToString(pbkdf2.Key([]byte(password), []byte(salt), legacyIterations, legacyKeyLen, sha512.New))
}

// HashAdminPassword returns a bcrypt hash for new credentials.
func HashAdminPassword(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyAdminPassword checks plain against either hash format.
func VerifyAdminPassword(u *models.AdminUser, plain string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	if u.Salt != "" {
		got := LegacyPasswordHash(plain, u.Salt)
		return subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(u.PasswordHash))) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// AuthService checks dashboard logins, with a per-username cooldown after failures.
type AuthService struct {
	admins   AdminStore
	throttle LoginThrottle
}

func NewAuthService(admins AdminStore, throttle LoginThrottle) *AuthService {
	return &AuthService{admins: admins, throttle: throttle}
}

func (s *AuthService) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return invalid("username", "Username and password are required")
	}
	wait, err := s.throttle.LoginWaitSeconds(ctx, username)
	if err != nil {
		return fmt.Errorf("check throttle: %w", err)
	}
	if wait > 0 {
		return &LoginThrottledError{WaitSeconds: wait}
	}
	u, err := s.admins.GetAdminUser(ctx, username)
	if err != nil {
		return fmt.Errorf("load admin user: %w", err)
	}
	if !VerifyAdminPassword(u, password) {
		if err := s.throttle.RecordLoginFailed(ctx, username); err != nil {
			return fmt.Errorf("record failed login: %w", err)
		}
		return ErrInvalidCredentials
	}
	return s.throttle.RecordLoginSuccess(ctx, username)
}

// CreateAdmin stores a new bcrypt credential.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return invalid("username", "Username is required")
	}
	hash, err := HashAdminPassword(password)
	if err != nil {
		return err
	}
	return s.admins.CreateAdminUser(ctx, username, hash, "")
}
