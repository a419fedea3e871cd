package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fundsledger/pkg/apperror"
)

func newSignInServer(t *testing.T, handler http.HandlerFunc) *PasswordClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPasswordClient(srv.URL+"/v1/accounts:signInWithPassword", "api-key")
}

func TestSignIn(t *testing.T) {
	client := newSignInServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "api-key" {
			t.Errorf("api key = %q", r.URL.Query().Get("key"))
		}
		var req signInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Email != "ada@example.com" || req.Password != "hunter2" || !req.ReturnSecureToken {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"idToken":      "id-token",
			"refreshToken": "refresh-token",
			"expiresIn":    "3600",
			"localId":      "uid-1",
		})
	})

	session, err := client.SignIn(context.Background(), "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.IDToken != "id-token" || session.RefreshToken != "refresh-token" || session.ExpiresIn != "3600" || session.SubjectID != "uid-1" {
		t.Errorf("session = %+v", session)
	}
}

func TestSignInRejected(t *testing.T) {
	client := newSignInServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"INVALID_PASSWORD"}}`))
	})

	_, err := client.SignIn(context.Background(), "ada@example.com", "wrong")
	if !apperror.Is(err, apperror.Unauthenticated) {
		t.Fatalf("err = %v, want Unauthenticated", err)
	}
	if apperror.Message(err) != "INVALID_PASSWORD" {
		t.Errorf("message = %q", apperror.Message(err))
	}
}

func TestSignInUpstreamDown(t *testing.T) {
	client := newSignInServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{}`))
	})

	_, err := client.SignIn(context.Background(), "ada@example.com", "pw")
	if !apperror.Is(err, apperror.UpstreamUnavailable) {
		t.Fatalf("err = %v, want UpstreamUnavailable", err)
	}
}

func TestSubjectContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := SubjectFromContext(ctx); ok {
		t.Fatal("empty context must not carry a subject")
	}
	ctx = WithSubject(ctx, "uid-7")
	if got, ok := SubjectFromContext(ctx); !ok || got != "uid-7" {
		t.Fatalf("SubjectFromContext = %q, %v", got, ok)
	}
}
