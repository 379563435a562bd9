package services

import (
	"context"
	"errors"
	"testing"

	"food-storefront/models"
)

func TestLegacyPasswordHash(t *testing.T) {
	h := LegacyPasswordHash("secret", "abcd")
	if len(h) != 128 {
		t.Errorf("hash length = %d, want 128 hex chars", len(h))
	}
	if h != LegacyPasswordHash("secret", "abcd") {
		t.Error("hash is not deterministic")
	}
	if h == LegacyPasswordHash("secret", "abce") {
		t.Error("salt does not affect the hash")
	}
}

func TestVerifyAdminPassword(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatal(err)
	}
	legacy := &models.AdminUser{Username: "owner", Salt: salt, PasswordHash: LegacyPasswordHash("pa55", salt)}
	hash, err := HashAdminPassword("pa55")
	if err != nil {
		t.Fatal(err)
	}
	modern := &models.AdminUser{Username: "owner", PasswordHash: hash}

	tests := []struct {
		name string
		user *models.AdminUser
		pw   string
		want bool
	}{
		{"legacy ok", legacy, "pa55", true},
		{"legacy wrong", legacy, "nope", false},
		{"bcrypt ok", modern, "pa55", true},
		{"bcrypt wrong", modern, "nope", false},
		{"no user", nil, "pa55", false},
	}
	for _, tt := range tests {
		if got := VerifyAdminPassword(tt.user, tt.pw); got != tt.want {
			t.Errorf("%s: VerifyAdminPassword = %v, want %v", tt.name, got, tt.want)
		}
	}
	if _, err := HashAdminPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestAuthServiceLoginThrottles(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	auth := NewAuthService(store, store)
	if err := auth.CreateAdmin(ctx, "owner", "pa55"); err != nil {
		t.Fatal(err)
	}

	if err := auth.Login(ctx, "owner", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	var throttled *LoginThrottledError
	if err := auth.Login(ctx, "owner", "pa55"); !errors.As(err, &throttled) || throttled.WaitSeconds < 1 {
		t.Fatalf("login during cooldown err = %v, want LoginThrottledError", err)
	}

	_ = store.RecordLoginSuccess(ctx, "owner")
	if err := auth.Login(ctx, "owner", "pa55"); err != nil {
		t.Errorf("login after cooldown: %v", err)
	}
	if err := auth.Login(ctx, "ghost", "pa55"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
	if err := auth.Login(ctx, "", ""); err == nil {
		t.Error("expected error for missing credentials")
	}
}
