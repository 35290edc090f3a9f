package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAuthority(t *testing.T) {
	cases := map[string]Authority{
		"USER":        AuthorityUser,
		"user":        AuthorityUser,
		" admin ":     AuthorityAdmin,
		"Manager":     AuthorityManager,
		"super_admin": AuthoritySuperAdmin,
	}
	for in, want := range cases {
		got, err := ParseAuthority(in)
		if err != nil || got != want {
			t.Errorf("ParseAuthority(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseAuthority("guest"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown authority, got %v", err)
	}
}

func TestAuthority_Permissions(t *testing.T) {
	if strings.Contains(AuthorityUser.Permissions(), "user:") {
		t.Errorf("USER must not carry user management grants: %s", AuthorityUser.Permissions())
	}
	if !strings.Contains(AuthoritySuperAdmin.Permissions(), "user:delete") {
		t.Errorf("SUPER_ADMIN must carry user:delete")
	}
	if strings.Contains(AuthorityAdmin.Permissions(), "user:delete") {
		t.Errorf("ADMIN must not carry user:delete")
	}
	if Authority("GUEST").Permissions() != "" {
		t.Errorf("unknown authority must have no permissions")
	}
}

func TestNewRole(t *testing.T) {
	r := NewRole(AuthorityAdmin)
	if r.Name != "ADMIN" || r.Authority != AuthorityAdmin {
		t.Fatalf("unexpected role: %+v", r)
	}
}

func TestNormalizeRoleName(t *testing.T) {
	for _, in := range []string{"user", " User ", "USER"} {
		if got := NormalizeRoleName(in); got != "USER" {
			t.Errorf("NormalizeRoleName(%q) = %q, want USER", in, got)
		}
	}
}
