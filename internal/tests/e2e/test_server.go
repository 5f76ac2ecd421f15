package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
)

// TestServer wraps the HTTP test server with a cookie-keeping client
type TestServer struct {
	t      *testing.T
	Server *httptest.Server
	Client *http.Client
}

// Response is a decoded API response
type Response struct {
	Status int
	Header http.Header
	Raw    []byte
	Body   map[string]interface{}
}

// Data returns the body's data object
func (r *Response) Data() map[string]interface{} {
	data, _ := r.Body["data"].(map[string]interface{})
	return data
}

// NewTestServer starts the suite's router on a local listener
func NewTestServer(t *testing.T, suite *TestSuite) *TestServer {
	t.Helper()

	server := httptest.NewServer(suite.Container.Router)
	t.Cleanup(server.Close)

	return &TestServer{t: t, Server: server, Client: newClient(t)}
}

// NewBrowser returns a client with its own cookie jar
func (ts *TestServer) NewBrowser() *TestServer {
	return &TestServer{t: ts.t, Server: ts.Server, Client: newClient(ts.t)}
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// Do sends a request with an optional JSON body and extra headers
func (ts *TestServer) Do(method, path string, body interface{}, header http.Header) *Response {
	ts.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	if err != nil {
		ts.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := ts.Client.Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		ts.t.Fatalf("read response: %v", err)
	}

	out := &Response{Status: resp.StatusCode, Header: resp.Header, Raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil {
			ts.t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return out
}

// PostJSON sends a POST with a JSON body
func (ts *TestServer) PostJSON(path string, body interface{}) *Response {
	ts.t.Helper()
	return ts.Do(http.MethodPost, path, body, nil)
}

// Get sends a GET
func (ts *TestServer) Get(path string) *Response {
	ts.t.Helper()
	return ts.Do(http.MethodGet, path, nil, nil)
}

// Cookie returns the named cookie currently held by the client
func (ts *TestServer) Cookie(name string) *http.Cookie {
	u, _ := http.NewRequest(http.MethodGet, ts.Server.URL, nil)
	for _, c := range ts.Client.Jar.Cookies(u.URL) {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// DropCookie removes the named cookie from the client's jar
func (ts *TestServer) DropCookie(name string) {
	u, _ := http.NewRequest(http.MethodGet, ts.Server.URL, nil)
	ts.Client.Jar.SetCookies(u.URL, []*http.Cookie{{Name: name, Value: "", Path: "/", MaxAge: -1}})
}

// Bearer returns an Authorization header for token
func Bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

// SetCookie stores a cookie in the client's jar
func (ts *TestServer) SetCookie(name, value string) {
	u, _ := http.NewRequest(http.MethodGet, ts.Server.URL, nil)
	ts.Client.Jar.SetCookies(u.URL, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}
