package rbac

import (
	"context"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "quiz:view", true},
		{"student", "quiz:create", false},
		{"student", "attempt:view-own", true},
		{"student", "attempt:view-all", false},
		{"examiner", "quiz:view-keys", true},
		{"examiner", "results:view-all", true},
		{"examiner", "users:bulk_upsert", false},
		{"admin", "anything:at-all", true},
		{"ghost-role", "quiz:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("student", "results:view-own", "results:view-all") {
		t.Error("student should match view-own")
	}
	if c.Any("student", "results:view-all", "users:bulk_upsert") {
		t.Error("student matched nothing it holds")
	}
}

func TestMatchPermWildcard(t *testing.T) {
	if !matchPerm("attempt:*", "attempt:submit") {
		t.Error("prefix wildcard should match")
	}
	if matchPerm("attempt:*", "results:view-own") {
		t.Error("prefix wildcard matched foreign prefix")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithRole(WithSubject(context.Background(), "R-100"), "student")
	if RoleFromContext(ctx) != "student" || SubjectFromContext(ctx) != "R-100" {
		t.Fatal("context round trip lost values")
	}
	if RoleFromContext(context.Background()) != "" {
		t.Fatal("empty context must yield empty role")
	}
}
