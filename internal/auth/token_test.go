package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuerRoundTrip(t *testing.T) {
	iss := NewIssuer([]byte("secret"), time.Minute)

	tok, err := iss.Issue(User{ID: 7, Username: "bob", Role: "admin"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "bob" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestIssuerRejectsWrongSecret(t *testing.T) {
	iss := NewIssuer([]byte("secret"), time.Minute)
	tok, err := iss.Issue(User{ID: 1, Username: "bob"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewIssuer([]byte("different"), time.Minute)
	if _, err := other.Verify(tok); err == nil {
		t.Fatal("token verified under the wrong secret")
	}
}

func TestIssuerRejectsExpiredToken(t *testing.T) {
	iss := NewIssuer([]byte("secret"), time.Nanosecond)
	tok, err := iss.Issue(User{ID: 1, Username: "bob"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := iss.Verify(tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestIssuerRejectsUnsignedAlgorithm(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	iss := NewIssuer([]byte("secret"), time.Minute)
	if _, err := iss.Verify(tok); err == nil {
		t.Fatal("alg=none token accepted")
	}
}

func TestVerifyFallsBackToSubject(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":      "42",
		"username": "ann",
		"exp":      time.Now().Add(time.Minute).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	iss := NewIssuer([]byte("secret"), time.Minute)
	got, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.UserID != 42 {
		t.Fatalf("uid = %d, want subject fallback 42", got.UserID)
	}
}
