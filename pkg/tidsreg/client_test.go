package tidsreg

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewClient(ts.URL, "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, ts
}

func TestLoginSetsAuthenticated(t *testing.T) {
	var gotUser, gotPass string
	mux := http.NewServeMux()
	mux.HandleFunc("/Login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad login form: %v", err)
			return
		}
		gotUser = r.PostFormValue("userName")
		gotPass = r.PostFormValue("password")
		http.SetCookie(w, &http.Cookie{Name: "AuthTicket", Value: "ticket-123", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})

	client, _ := newTestClient(t, mux)
	if client.IsAuthenticated() {
		t.Fatal("client authenticated before login")
	}

	if err := client.Login("jdoe", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if gotUser != "jdoe" || gotPass != "hunter2" {
		t.Errorf("login form = %q/%q", gotUser, gotPass)
	}
	if !client.IsAuthenticated() {
		t.Error("client not authenticated after successful login")
	}
}

func TestLoginWithoutAuthTicket(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Login", func(w http.ResponseWriter, r *http.Request) {
		// 200 with a login page body but no AuthTicket: wrong credentials.
		w.WriteHeader(http.StatusOK)
	})

	client, _ := newTestClient(t, mux)
	err := client.Login("jdoe", "wrong")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	if client.IsAuthenticated() {
		t.Error("client authenticated after failed login")
	}
}

func TestLoginHTTPFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	client, _ := newTestClient(t, mux)
	err := client.Login("jdoe", "hunter2")

	var up *UpstreamHTTPError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamHTTPError, got %v", err)
	}
	if up.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", up.Status)
	}
	if StatusOf(err) != http.StatusForbidden {
		t.Errorf("StatusOf = %d, want 403", StatusOf(err))
	}
}

// A persistent 5xx is retried, but once the retries run out the upstream
// status must still come back on the error instead of a generic failure.
func TestLoginServerErrorKeepsStatus(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/Login", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, _ := newTestClient(t, mux)
	err := client.Login("jdoe", "hunter2")

	var up *UpstreamHTTPError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamHTTPError, got %v", err)
	}
	if up.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", up.Status)
	}
	if StatusOf(err) != http.StatusInternalServerError {
		t.Errorf("StatusOf = %d, want 500", StatusOf(err))
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (RetryMax 2)", attempts)
	}
}

func TestFindServerErrorKeepsStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Find/SelectCustomers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client, _ := newTestClient(t, mux)
	_, err := client.Customers()

	var up *UpstreamHTTPError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamHTTPError, got %v", err)
	}
	if up.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", up.Status)
	}
}

func TestCustomersPassthrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Find/SelectCustomers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") != "0" {
			t.Errorf("mode = %q, want 0", r.URL.Query().Get("mode"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"Id":"42","Name":"Acme Corp"}]`))
	})

	client, _ := newTestClient(t, mux)
	raw, err := client.Customers()
	if err != nil {
		t.Fatalf("Customers failed: %v", err)
	}
	if string(raw) != `[{"Id":"42","Name":"Acme Corp"}]` {
		t.Errorf("raw = %s", raw)
	}
}

func TestProjectsQueryParams(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Find/SelectProjects", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("customerId") != "42" || q.Get("date") != "2025-10-01" || q.Get("mode") != "0" {
			t.Errorf("unexpected query: %v", q)
		}
		_, _ = w.Write([]byte(`[]`))
	})

	client, _ := newTestClient(t, mux)
	if _, err := client.Projects("42", "2025-10-01"); err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
}

func TestFindWrapsNonJSONBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Find/SelectKinds", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>no kinds</body></html>`))
	})

	client, _ := newTestClient(t, mux)
	raw, err := client.Kinds("Website Redesign", "Coding")
	if err != nil {
		t.Fatalf("Kinds failed: %v", err)
	}

	var wrapped struct {
		Success bool   `json:"success"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		t.Fatalf("wrapped body is not JSON: %v", err)
	}
	if !wrapped.Success {
		t.Error("success = false, want true")
	}
	if wrapped.Text != `<html><body>no kinds</body></html>` {
		t.Errorf("text = %q", wrapped.Text)
	}
}

func TestFindUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Find/SelectCustomers", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/Login", http.StatusFound)
	})
	mux.HandleFunc("/Login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)
	_, err := client.Customers()

	var up *UpstreamHTTPError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamHTTPError, got %v", err)
	}
	if up.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", up.Status)
	}
}

func TestSessionCookiePersistsAcrossCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "AuthTicket", Value: "ticket-123", Path: "/"})
	})
	mux.HandleFunc("/Find/SelectCustomers", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("AuthTicket")
		if err != nil || cookie.Value != "ticket-123" {
			t.Error("lookup request missing the AuthTicket cookie")
		}
		_, _ = w.Write([]byte(`[]`))
	})

	client, _ := newTestClient(t, mux)
	if err := client.Login("jdoe", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := client.Customers(); err != nil {
		t.Fatalf("Customers failed: %v", err)
	}
}

func TestPageTitle(t *testing.T) {
	if got := pageTitle("<html><head><title> Tidsreg </title></head></html>"); got != "Tidsreg" {
		t.Errorf("pageTitle = %q, want %q", got, "Tidsreg")
	}
	if got := pageTitle(`{"not":"html"}`); got != "" {
		t.Errorf("pageTitle of JSON = %q, want empty", got)
	}
}
