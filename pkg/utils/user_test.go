package utils

import (
	"testing"
)

func TestActualAccount_WithoutSudo(t *testing.T) {
	t.Setenv("SUDO_USER", "")

	acct, err := ActualAccount()
	if err != nil {
		t.Fatalf("ActualAccount failed: %v", err)
	}
	if acct.HomeDir == "" {
		t.Error("expected a home directory")
	}
	if acct.ViaSudo {
		t.Error("expected ViaSudo to be false without SUDO_USER")
	}
}

func TestActualAccount_UnknownSudoUserFallsBack(t *testing.T) {
	t.Setenv("SUDO_USER", "parkspot-no-such-user")

	acct, err := ActualAccount()
	if err != nil {
		t.Fatalf("ActualAccount failed: %v", err)
	}
	if acct.ViaSudo {
		t.Error("expected fallback to the current user")
	}
}

func TestGetActualUser(t *testing.T) {
	t.Setenv("SUDO_USER", "")

	_, home, err := GetActualUser()
	if err != nil {
		t.Fatalf("GetActualUser failed: %v", err)
	}
	if home == "" {
		t.Error("expected a home directory")
	}
}

func TestAccountChown_NotSudoIsNoop(t *testing.T) {
	acct := Account{UID: 0, GID: 0}
	if err := acct.Chown("/definitely/not/here"); err != nil {
		t.Errorf("expected no-op, got %v", err)
	}
}

func TestFixFileOwnership_NoSudoIsNoop(t *testing.T) {
	t.Setenv("SUDO_USER", "")

	if err := FixFileOwnership(t.TempDir()); err != nil {
		t.Errorf("expected nil without SUDO_USER, got %v", err)
	}
}
