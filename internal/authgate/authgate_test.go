package authgate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(verifier IdentityVerifier) *gin.Engine {
	r := gin.New()
	gate := New(verifier)
	r.GET("/protected", gate.Middleware(), func(c *gin.Context) {
		caller, _ := Caller(c)
		c.JSON(http.StatusOK, gin.H{"caller": caller})
	})
	return r
}

type fakeVerifier struct {
	identity Identity
	err      error
}

func (f fakeVerifier) Verify(token string) (Identity, error) {
	return f.identity, f.err
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	r := newRouter(fakeVerifier{})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	r := newRouter(fakeVerifier{err: errors.New("bad token")})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMiddlewareRejectsNoWallet(t *testing.T) {
	r := newRouter(fakeVerifier{identity: Identity{UserID: "u1"}})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when no wallet-type account linked, got %d", w.Code)
	}
}

func TestMiddlewareAcceptsWalletAndNormalizesLowercase(t *testing.T) {
	r := newRouter(fakeVerifier{identity: Identity{
		UserID:  "u1",
		Wallets: []Wallet{{Address: "0xABCDEF", ChainType: ChainTypeWallet}},
	}})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if want := `"caller":"0xabcdef"`; !contains(w.Body.String(), want) {
		t.Fatalf("expected lowercased caller in body, got %s", w.Body.String())
	}
}

func TestJWTVerifierRoundTrip(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	token, err := v.IssueToken("user-1", "0xAbC123", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	identity, err := v.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if identity.UserID != "user-1" {
		t.Fatalf("expected userId user-1, got %q", identity.UserID)
	}
	if len(identity.Wallets) != 1 || identity.Wallets[0].Address != "0xAbC123" {
		t.Fatalf("expected one wallet with address 0xAbC123, got %+v", identity.Wallets)
	}
}

func TestJWTVerifierRejectsExpiredToken(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	token, err := v.IssueToken("user-1", "0xAbC123", -time.Hour)
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}
	if _, err := v.Verify(token); err == nil {
		t.Fatalf("expected error verifying expired token")
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
