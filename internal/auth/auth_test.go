package auth

import (
	"errors"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter2" {
		t.Fatalf("Expected a hash, got the plaintext")
	}

	if err := CheckPassword(hash, "hunter2"); err != nil {
		t.Errorf("Expected password to match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if err := CheckPassword("not-a-hash", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for malformed hash, got %v", err)
	}

	if _, err := HashPassword(""); err == nil {
		t.Errorf("Expected error for empty password")
	}
}

func TestSessions_IssueAndParse(t *testing.T) {
	sessions, err := NewSessions("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessions failed: %v", err)
	}

	token, expiresAt, err := sessions.Issue("user-1", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	session, err := sessions.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if session.AccountId != "user-1" || session.Username != "alice" {
		t.Errorf("unexpected session: %+v", session)
	}
	if session.ExpiresAt.Unix() != expiresAt.Unix() {
		t.Errorf("Expected expiry %v, got %v", expiresAt, session.ExpiresAt)
	}
}

func TestSessions_Rejects(t *testing.T) {
	sessions, err := NewSessions("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessions failed: %v", err)
	}
	other, err := NewSessions("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessions failed: %v", err)
	}

	foreign, _, err := other.Issue("user-1", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := sessions.Parse(foreign); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession for foreign token, got %v", err)
	}

	if _, err := sessions.Parse("garbage"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession for garbage, got %v", err)
	}

	// Issue in the past so the token is already expired
	sessions.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := sessions.Issue("user-1", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	sessions.now = time.Now
	if _, err := sessions.Parse(expired); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession for expired token, got %v", err)
	}
}

func TestNewSessions_EmptySecret(t *testing.T) {
	if _, err := NewSessions("", time.Hour); err == nil {
		t.Fatalf("Expected error for empty secret")
	}
}
