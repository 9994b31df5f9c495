package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionCookieSecureBehindProxy(t *testing.T) {
	cases := []struct {
		name  string
		proto string
		want  bool
	}{
		{"plain http", "", false},
		{"forwarded https", "https", true},
		{"forwarded upper case", "HTTPS", true},
		{"forwarded http", "http", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if tc.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			w := httptest.NewRecorder()
			SetSessionCookie(w, r, "s_1")
			cookies := w.Result().Cookies()
			if len(cookies) != 1 {
				t.Fatalf("got %d cookies", len(cookies))
			}
			c := cookies[0]
			if c.Secure != tc.want {
				t.Errorf("Secure = %v, want %v", c.Secure, tc.want)
			}
			if c.Value != "s_1" || c.MaxAge != int(CookieMaxAge.Seconds()) || !c.HttpOnly {
				t.Errorf("cookie = %+v", c)
			}
		})
	}
}

func TestClearSessionCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	ClearSessionCookie(w, r)
	c := w.Result().Cookies()[0]
	if c.Name != CookieName || c.MaxAge >= 0 || !c.Secure {
		t.Errorf("cookie = %+v", c)
	}
}
