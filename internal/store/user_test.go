package store

import (
	"testing"

	"github.com/google/uuid"
)

func TestUserStoreAuthenticate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "auth-" + uuid.NewString()[:8] + "@example.com"
	user, err := s.Create(email, "correct-horse", "Auth Tester", "editor")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", user.ID) })

	got, err := s.Authenticate(email, "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatal("expected matching user for correct password")
	}

	got, err = s.Authenticate(email, "wrong-password")
	if err != nil {
		t.Fatalf("Authenticate wrong password: %v", err)
	}
	if got != nil {
		t.Error("wrong password should not authenticate")
	}

	got, err = s.Authenticate("nobody@example.com", "whatever")
	if err != nil {
		t.Fatalf("Authenticate unknown email: %v", err)
	}
	if got != nil {
		t.Error("unknown email should not authenticate")
	}
}

func TestUserStorePasswordNotExposed(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "hash-" + uuid.NewString()[:8] + "@example.com"
	user, err := s.Create(email, "secret123", "Hash Tester", "editor")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", user.ID) })

	if user.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}
}
