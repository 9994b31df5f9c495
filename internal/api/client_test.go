package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

// recordedRequest captures what the fake backend received.
type recordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Auth        string
	Body        []byte
}

// newBackend starts a fake backend that answers every request with status
// and body, and records the last request.
func newBackend(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*rec = recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Auth:        r.Header.Get("Authorization"),
			Body:        b,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestPathSets(t *testing.T) {
	proxy := ProxyPaths()
	backend := BackendPaths()
	if proxy.Chat != "/api/chat" || backend.Chat != "/chain/pdf_retrieval" {
		t.Errorf("unexpected chat paths: %q, %q", proxy.Chat, backend.Chat)
	}
	pairs := [][2]string{
		{proxy.Hotspot, backend.Hotspot},
		{proxy.Weather, backend.Weather},
		{proxy.ProcessMessage, backend.ProcessMessage},
		{proxy.AdminLogin, backend.AdminLogin},
		{proxy.UploadPDF, backend.UploadPDF},
		{proxy.CreateRAG, backend.CreateRAG},
	}
	for _, p := range pairs {
		if p[0] != "/api"+p[1] {
			t.Errorf("proxy path %q does not rewrite to %q", p[0], p[1])
		}
	}
}

func TestSendPostsJSON(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL + "/")

	resp, err := c.send(context.Background(), "/api/weather", locationRequest{Location: "北京"}).Unwrap()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	resp.Body.Close()

	if rec.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", rec.Method)
	}
	if rec.Path != "/api/weather" {
		t.Errorf("path = %s", rec.Path)
	}
	if rec.ContentType != "application/json" {
		t.Errorf("content type = %q", rec.ContentType)
	}
	var got locationRequest
	if err := json.Unmarshal(rec.Body, &got); err != nil || got.Location != "北京" {
		t.Errorf("body = %s (err %v)", rec.Body, err)
	}
	if rec.Auth != "" {
		t.Errorf("unexpected Authorization header %q", rec.Auth)
	}
}

func TestSendRequestError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusServiceUnavailable, `down`)
	c := NewClient(srv.URL)

	_, err := c.send(context.Background(), "/api/hotspot", nil).Unwrap()
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %T: %v", err, err)
	}
	if reqErr.StatusCode != http.StatusServiceUnavailable || reqErr.Status != "Service Unavailable" {
		t.Errorf("unexpected error fields: %+v", reqErr)
	}
	if reqErr.Path != "/api/hotspot" {
		t.Errorf("path = %q", reqErr.Path)
	}
}

func TestSendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	_, err := c.send(context.Background(), "/api/weather", nil).Unwrap()
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
}

func TestBearerToken(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL, WithBearerToken(" secret "))

	resp, err := c.send(context.Background(), "/x", nil).Unwrap()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	resp.Body.Close()
	if rec.Auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", rec.Auth, "Bearer secret")
	}
}

func TestWithPaths(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"weather": []}`)
	c := NewClient(srv.URL, WithPaths(BackendPaths()))

	if _, err := c.WeatherByCity(context.Background(), "上海"); err != nil {
		t.Fatalf("WeatherByCity: %v", err)
	}
	if rec.Path != "/weather" {
		t.Errorf("path = %q, want /weather", rec.Path)
	}
}

func TestFormatErrorTruncatesRaw(t *testing.T) {
	raw := make([]byte, maxRawInMessage*2)
	for i := range raw {
		raw[i] = 'x'
	}
	err := &FormatError{Path: "/p", Reason: "bad", Raw: string(raw)}
	if len(err.Error()) > maxRawInMessage+64 {
		t.Errorf("error message not truncated: %d bytes", len(err.Error()))
	}
}

func TestFormatErrorKeepsRunesWhole(t *testing.T) {
	// 3-byte runes put the byte limit in the middle of a character.
	err := &FormatError{Path: "/weather", Reason: "bad", Raw: strings.Repeat("天气", maxRawInMessage)}
	msg := err.Error()
	if !utf8.ValidString(msg) {
		t.Errorf("truncated message is not valid UTF-8: %q", msg[len(msg)-16:])
	}
	if !strings.HasSuffix(msg, "...") {
		t.Errorf("message was not truncated")
	}
}

func TestResult(t *testing.T) {
	ok := Success(2)
	if !ok.Ok() || ok.OrElse(0) != 2 {
		t.Errorf("unexpected success result: %+v", ok)
	}
	boom := errors.New("boom")
	failed := Failure[int](boom)
	if failed.Ok() || failed.OrElse(7) != 7 || !errors.Is(failed.Err(), boom) {
		t.Errorf("unexpected failure result: %+v", failed)
	}

	doubled := Then(ok, func(v int) (int, error) { return v * 2, nil })
	if v, err := doubled.Unwrap(); err != nil || v != 4 {
		t.Errorf("Then = %d, %v", v, err)
	}
	called := false
	skipped := Then(failed, func(v int) (int, error) { called = true; return v, nil })
	if called || !errors.Is(skipped.Err(), boom) {
		t.Errorf("Then ran on a failure or lost the error")
	}
}
