package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"noticeboard/pkg/config"
	"noticeboard/pkg/errors"
)

func testAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg := config.AuthConfig{
		JWTSecret: "test-signing-secret",
		TokenTTL:  config.Duration(time.Hour),
		Admins: []config.AdminUser{
			{ID: "adm-1", Username: "alice", Name: "Alice", PasswordHash: string(hash)},
		},
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	return a
}

func TestLoginAndVerify(t *testing.T) {
	a := testAuthenticator(t)

	token, id, err := a.Login("alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if id.ID != "adm-1" || id.Name != "Alice" || !id.IsAdmin() {
		t.Fatalf("login identity = %+v", id)
	}

	got, err := a.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != id {
		t.Fatalf("verified identity = %+v, want %+v", got, id)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := testAuthenticator(t)

	if _, _, err := a.Login("alice", "wrong"); errors.KindOf(err) != errors.KindUnauthorized {
		t.Fatalf("wrong password: kind = %v, want unauthorized", errors.KindOf(err))
	}
	if _, _, err := a.Login("mallory", "s3cret"); errors.KindOf(err) != errors.KindUnauthorized {
		t.Fatalf("unknown user: kind = %v, want unauthorized", errors.KindOf(err))
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	a := testAuthenticator(t)
	token, _, err := a.Login("alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := a.Verify(token + "x"); errors.KindOf(err) != errors.KindUnauthorized {
		t.Fatal("tampered token must not verify")
	}
	if _, err := a.Verify("not-a-token"); errors.KindOf(err) != errors.KindUnauthorized {
		t.Fatal("garbage token must not verify")
	}

	other, _ := New(config.AuthConfig{JWTSecret: "different-secret"})
	if _, err := other.Verify(token); errors.KindOf(err) != errors.KindUnauthorized {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestMiddlewareResolvesIdentity(t *testing.T) {
	a := testAuthenticator(t)
	token, _, err := a.Login("alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	var seen Identity
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
	}))

	// no token: anonymous viewer
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/messages", nil))
	if rr.Code != http.StatusOK || seen.Role != RoleViewer || seen.ID != "" {
		t.Fatalf("anonymous request: code=%d identity=%+v", rr.Code, seen)
	}

	// valid bearer token: resolved admin
	req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || seen.ID != "adm-1" || !seen.IsAdmin() {
		t.Fatalf("bearer request: code=%d identity=%+v", rr.Code, seen)
	}

	// invalid token: rejected outright
	req = httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: code = %d, want 401", rr.Code)
	}
}

func TestRateLimiterThrottlesPerCaller(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := rl.Middleware(ok)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests rejected: %v", codes)
	}
	if codes[3] != http.StatusTooManyRequests {
		t.Fatalf("expected throttling after burst, got %v", codes)
	}

	// a different caller has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("second caller throttled by first caller's budget: %d", rr.Code)
	}
}

func TestNewRequiresSecretWithAdmins(t *testing.T) {
	_, err := New(config.AuthConfig{
		Admins: []config.AdminUser{{ID: "a", Username: "a", PasswordHash: "$2a$10$x"}},
	})
	if err == nil {
		t.Fatal("expected error for admins without jwt secret")
	}
}
