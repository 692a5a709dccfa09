package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/healthcare-booking/internal/model"
)

func TestPasswordRoundtrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatal("expected password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
}

func TestTokenRoundtrip(t *testing.T) {
	userID := uuid.New()

	token, err := MakeToken(userID, model.UserRoleDoctor, "secret", time.Hour)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}

	claims, err := ParseToken(token, "secret")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != userID.String() || claims.Role != string(model.UserRoleDoctor) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := MakeToken(uuid.New(), model.UserRolePatient, "secret", time.Hour)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	if _, err := ParseToken(token, "other"); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := MakeToken(uuid.New(), model.UserRolePatient, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	if _, err := ParseToken(token, "secret"); err == nil {
		t.Fatal("expected parse failure for expired token")
	}
}
