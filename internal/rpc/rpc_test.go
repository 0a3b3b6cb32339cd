package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/Sozary/tidsreg/pkg/tidsreg"
)

func runServer(t *testing.T, client *tidsreg.Client, input string) []string {
	t.Helper()
	var out bytes.Buffer
	srv := New(client, strings.NewReader(input), &out)
	if err := srv.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

func testClient(t *testing.T, handler http.Handler) *tidsreg.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client, err := tidsreg.NewClient(ts.URL, "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestInitialize(t *testing.T) {
	lines := runServer(t, nil, `{"jsonrpc":"2.0","method":"initialize","params":{},"id":1}`)
	if len(lines) != 1 {
		t.Fatalf("expected 1 response, got %d", len(lines))
	}

	res := gjson.Get(lines[0], "result")
	if got := res.Get("protocolVersion").String(); got != protocolVersion {
		t.Errorf("protocolVersion = %q", got)
	}
	// Pinned literally: clients key on the advertised name.
	if got := res.Get("serverInfo.name").String(); got != "tidsreg-mcp" {
		t.Errorf("server name = %q, want %q", got, "tidsreg-mcp")
	}
	if gjson.Get(lines[0], "id").Int() != 1 {
		t.Errorf("id = %s", gjson.Get(lines[0], "id").Raw)
	}
}

func TestToolsList(t *testing.T) {
	lines := runServer(t, nil, `{"jsonrpc":"2.0","method":"tools/list","id":2}`)
	if len(lines) != 1 {
		t.Fatalf("expected 1 response, got %d", len(lines))
	}

	tools := gjson.Get(lines[0], "result.tools").Array()
	if len(tools) != 7 {
		t.Fatalf("expected 7 tools, got %d", len(tools))
	}

	names := map[string]bool{}
	for _, tool := range tools {
		names[tool.Get("name").String()] = true
	}
	for _, want := range []string{"login", "list_customers", "list_projects", "list_phases", "list_activities", "list_kinds", "get_registered_hours"} {
		if !names[want] {
			t.Errorf("tool %q missing from tools/list", want)
		}
	}
}

func TestMethodNotFound(t *testing.T) {
	lines := runServer(t, nil, `{"jsonrpc":"2.0","method":"resources/list","id":3}`)
	if len(lines) != 1 {
		t.Fatalf("expected 1 response, got %d", len(lines))
	}
	if code := gjson.Get(lines[0], "error.code").Int(); code != codeMethodNotFound {
		t.Errorf("error code = %d, want %d", code, codeMethodNotFound)
	}
}

func TestNotificationsGetNoResponse(t *testing.T) {
	lines := runServer(t, nil, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if len(lines) != 0 {
		t.Fatalf("expected no responses, got %d: %v", len(lines), lines)
	}
}

func TestParseError(t *testing.T) {
	lines := runServer(t, nil, `this is not json`)
	if len(lines) != 1 {
		t.Fatalf("expected 1 response, got %d", len(lines))
	}
	if code := gjson.Get(lines[0], "error.code").Int(); code != codeParseError {
		t.Errorf("error code = %d, want %d", code, codeParseError)
	}
}

func TestCallUnknownTool(t *testing.T) {
	lines := runServer(t, nil, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"frobnicate"},"id":4}`)
	if len(lines) != 1 {
		t.Fatalf("expected 1 response, got %d", len(lines))
	}
	if !gjson.Get(lines[0], "result.isError").Bool() {
		t.Error("isError not set for unknown tool")
	}
	text := gjson.Get(lines[0], "result.content.0.text").String()
	if !strings.Contains(text, "Unknown tool") {
		t.Errorf("text = %q", text)
	}
}

func TestCallMissingArgument(t *testing.T) {
	lines := runServer(t, nil, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"get_registered_hours","arguments":{}},"id":5}`)
	if len(lines) != 1 {
		t.Fatalf("expected 1 response, got %d", len(lines))
	}
	if !gjson.Get(lines[0], "result.isError").Bool() {
		t.Error("isError not set for a missing argument")
	}
	text := gjson.Get(lines[0], "result.content.0.text").String()
	if !strings.Contains(text, "Missing required argument: date") {
		t.Errorf("text = %q", text)
	}
}

func TestCallLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "AuthTicket", Value: "t", Path: "/"})
	})
	client := testClient(t, mux)

	lines := runServer(t, client,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"login","arguments":{"username":"jdoe","password":"hunter2"}},"id":6}`)
	if len(lines) != 1 {
		t.Fatalf("expected 1 response, got %d", len(lines))
	}

	text := gjson.Get(lines[0], "result.content.0.text").String()
	var payload map[string]bool
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("tool text is not JSON: %v", err)
	}
	if !payload["ok"] {
		t.Errorf("login payload = %q", text)
	}
	if gjson.Get(lines[0], "result.isError").Bool() {
		t.Error("isError set on successful login")
	}
}

// Client-level failures are embedded in the tool payload rather than the RPC
// error slot, so callers always get a JSON body to inspect.
func TestCallLoginFailureIsPayload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK) // no AuthTicket
	})
	client := testClient(t, mux)

	lines := runServer(t, client,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"login","arguments":{"username":"jdoe","password":"nope"}},"id":7}`)

	text := gjson.Get(lines[0], "result.content.0.text").String()
	if gjson.Get(text, "status").Int() != 401 {
		t.Errorf("status = %s, want 401 (text %q)", gjson.Get(text, "status").Raw, text)
	}
	if !strings.Contains(gjson.Get(text, "error").String(), "AuthTicket") {
		t.Errorf("error = %q", gjson.Get(text, "error").String())
	}
}

func TestCallListCustomers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Find/SelectCustomers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"Id":"42","Name":"Acme Corp"}]`))
	})
	client := testClient(t, mux)

	lines := runServer(t, client, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"list_customers"},"id":8}`)
	text := gjson.Get(lines[0], "result.content.0.text").String()
	if got := gjson.Get(text, "0.Name").String(); got != "Acme Corp" {
		t.Errorf("customer name = %q (text %q)", got, text)
	}
}
