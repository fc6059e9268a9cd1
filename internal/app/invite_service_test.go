package app

import (
	"testing"
	"time"
)

func TestInviteTokenRoundTrip(t *testing.T) {
	svc := NewInviteService("test-secret", "mahjongg-test", time.Minute)

	token, err := svc.GenerateToken("match-123", "ABCDE", "user-1")
	if err != nil {
		t.Fatalf("GenerateToken() = %v", err)
	}

	matchID, code, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() = %v", err)
	}
	if matchID != "match-123" || code != "ABCDE" {
		t.Fatalf("claims = (%s, %s), want (match-123, ABCDE)", matchID, code)
	}
}

func TestInviteTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewInviteService("secret-a", "mahjongg-test", time.Minute)
	verifier := NewInviteService("secret-b", "mahjongg-test", time.Minute)

	token, err := issuer.GenerateToken("match-123", "ABCDE", "user-1")
	if err != nil {
		t.Fatalf("GenerateToken() = %v", err)
	}
	if _, _, err := verifier.VerifyToken(token); err == nil {
		t.Fatal("VerifyToken() accepted a token signed with another secret")
	}
}

func TestInviteTokenRejectsWrongIssuer(t *testing.T) {
	issuer := NewInviteService("test-secret", "someone-else", time.Minute)
	verifier := NewInviteService("test-secret", "mahjongg-test", time.Minute)

	token, err := issuer.GenerateToken("match-123", "ABCDE", "user-1")
	if err != nil {
		t.Fatalf("GenerateToken() = %v", err)
	}
	if _, _, err := verifier.VerifyToken(token); err == nil {
		t.Fatal("VerifyToken() accepted a token from another issuer")
	}
}

func TestInviteTokenRequiresConfig(t *testing.T) {
	svc := NewInviteService("", "", 0)
	if _, err := svc.GenerateToken("match-123", "ABCDE", "user-1"); err == nil {
		t.Fatal("GenerateToken() succeeded with no secret configured")
	}
}
