package auth

import "testing"

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret")
	tok, err := a.IssueJWT("R-100", "student")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := a.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Sub != "R-100" || claims.Role != "student" {
		t.Fatalf("claims %+v", claims)
	}
	if claims.Issuer != "olympiad" {
		t.Fatalf("issuer %q", claims.Issuer)
	}
}

func TestParseRejectsForeignKey(t *testing.T) {
	tok, err := NewAuthService("key-one").IssueJWT("R-100", "student")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuthService("key-two").Parse(tok); err == nil {
		t.Fatal("token signed with another key must not parse")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := NewAuthService("secret").Parse("not.a.token"); err == nil {
		t.Fatal("garbage must not parse")
	}
}
