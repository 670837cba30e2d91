package auth

import (
	"context"
	"errors"
	"testing"

	"addressme/verification"
)

func TestParseStaticDirectory(t *testing.T) {
	dir, err := ParseStaticDirectory(map[string]string{
		"res1":       "resident",
		" verifier1": " verifier ",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	ctx := context.Background()
	cases := map[string]verification.Role{
		"res1":      verification.RoleResident,
		"verifier1": verification.RoleVerifier,
		"stranger":  verification.RoleNone,
	}
	for id, want := range cases {
		got, err := dir.Role(ctx, id)
		if err != nil {
			t.Fatalf("role %s: %v", id, err)
		}
		if got != want {
			t.Fatalf("role %s: expected %q got %q", id, want, got)
		}
	}
}

func TestParseStaticDirectory_RejectsUnknownRole(t *testing.T) {
	if _, err := ParseStaticDirectory(map[string]string{"x": "police"}); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
	if _, err := ParseStaticDirectory(map[string]string{"": "resident"}); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser for empty id, got %v", err)
	}
}

func TestUser_EffectiveRole(t *testing.T) {
	cases := []struct {
		user User
		want verification.Role
	}{
		{User{Role: verification.RoleResident}, verification.RoleResident},
		{User{Role: verification.RoleResident, Approved: true}, verification.RoleResident},
		{User{Role: verification.RoleVerifier}, verification.RoleNone},
		{User{Role: verification.RoleVerifier, Approved: true}, verification.RoleVerifier},
		{User{Role: "admin", Approved: true}, verification.RoleNone},
	}
	for _, tc := range cases {
		if got := tc.user.EffectiveRole(); got != tc.want {
			t.Fatalf("%+v: expected %q got %q", tc.user, tc.want, got)
		}
	}
}
