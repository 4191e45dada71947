package auth

import (
	"strings"
	"testing"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignHS256(map[string]any{"sub": "owner-1", "email": "ada@example.com"}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims["sub"] != "owner-1" || claims["email"] != "ada@example.com" {
		t.Fatalf("claims did not round-trip: %v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := SignHS256(map[string]any{"sub": "owner-1"}, []byte("right"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, []byte("wrong")); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignHS256(map[string]any{"sub": "owner-1"}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(token, ".")
	forged, err := SignHS256(map[string]any{"sub": "owner-2"}, []byte("attacker"))
	if err != nil {
		t.Fatalf("sign forged: %v", err)
	}
	tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	if _, err := ParseAndVerifyHS256(tampered, secret); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for tampered payload, got %v", err)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	for _, token := range []string{"", "only-one-part", "a.b", "a.b.c.d"} {
		if _, err := ParseAndVerifyHS256(token, []byte("secret")); err != ErrInvalidToken {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}
