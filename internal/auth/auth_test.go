package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestManager() *JWTManager {
	return NewJWTManager("test-secret-key-with-length", "plant-maint-api", "plant-maint-api", time.Hour)
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateToken("keeper")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "keeper" {
		t.Errorf("username = %q, want keeper", claims.Username)
	}
	if claims.Issuer != "plant-maint-api" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := newTestManager()
	token, err := m.GenerateToken("keeper")
	if err != nil {
		t.Fatal(err)
	}

	other := NewJWTManager("another-secret-entirely!", "plant-maint-api", "plant-maint-api", time.Hour)
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret validated")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret-key-with-length", "i", "a", -time.Minute)
	token, err := m.GenerateToken("keeper")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expired token validated")
	}
}

func TestValidateConfig(t *testing.T) {
	if err := newTestManager().ValidateConfig(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := NewJWTManager("short", "i", "a", time.Hour).ValidateConfig(); err == nil {
		t.Error("weak secret accepted")
	}
	if err := NewJWTManager("test-secret-key-with-length", "", "a", time.Hour).ValidateConfig(); err == nil {
		t.Error("empty issuer accepted")
	}
}

func TestAuthorizeTokenPositions(t *testing.T) {
	m := newTestManager()
	token, err := m.GenerateToken("keeper")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		build func() *http.Request
	}{
		{"bearer header", func() *http.Request {
			r := httptest.NewRequest("GET", "/maintenance", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			return r
		}},
		{"cookie", func() *http.Request {
			r := httptest.NewRequest("GET", "/maintenance", nil)
			r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
			return r
		}},
		{"query param", func() *http.Request {
			return httptest.NewRequest("GET", "/maintenance?token="+token, nil)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := m.Authorize(tc.build())
			if err != nil {
				t.Fatalf("Authorize: %v", err)
			}
			if claims.Username != "keeper" {
				t.Errorf("username = %q", claims.Username)
			}
		})
	}
}

func TestAuthorizeNoToken(t *testing.T) {
	m := newTestManager()
	if _, err := m.Authorize(httptest.NewRequest("GET", "/maintenance", nil)); err != ErrNoToken {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestMiddlewareRejectsAndAccepts(t *testing.T) {
	m := newTestManager()
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UsernameFromContext(r.Context()) != "keeper" {
			t.Error("username missing from context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/maintenance", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	token, err := m.GenerateToken("keeper")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("GET", "/maintenance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", w.Code)
	}
}

func TestCredentialsFromFile(t *testing.T) {
	// bcrypt of "hunter2" is expensive to inline; build via SingleUser and
	// check the file loader against a hash generated the same way.
	single, err := SingleUser("site-admin", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	hash := single.users["site-admin"]

	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	content := "users:\n  - username: site-admin\n    password_hash: \"" + hash + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	creds, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if !creds.Verify("site-admin", "hunter2") {
		t.Error("correct password rejected")
	}
	if creds.Verify("site-admin", "wrong") {
		t.Error("wrong password accepted")
	}
	if creds.Verify("nobody", "hunter2") {
		t.Error("unknown user accepted")
	}
}

func TestLoadCredentialsRejectsEmptyEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	if err := os.WriteFile(path, []byte("users:\n  - username: \"\"\n    password_hash: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCredentials(path); err == nil {
		t.Error("empty username accepted")
	}
}
