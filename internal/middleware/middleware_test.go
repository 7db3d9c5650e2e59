package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestForceHTTPS(t *testing.T) {
	cases := []struct {
		name     string
		enabled  bool
		host     string
		proto    string
		wantCode int
	}{
		{"disabled", false, "example.com", "", http.StatusOK},
		{"redirect", true, "example.com", "", http.StatusPermanentRedirect},
		{"proxy https", true, "example.com", "https", http.StatusOK},
		{"localhost", true, "localhost:8080", "", http.StatusOK},
		{"loopback ip", true, "127.0.0.1:8080", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://"+tc.host+"/contact?x=1", nil)
			req.Host = tc.host
			if tc.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			rec := httptest.NewRecorder()
			ForceHTTPS(tc.enabled)(ok).ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			if tc.wantCode == http.StatusPermanentRedirect {
				if loc := rec.Header().Get("Location"); loc != "https://example.com/contact?x=1" {
					t.Fatalf("Location = %q", loc)
				}
			}
		})
	}
}

func TestSecurity(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{
		"Strict-Transport-Security",
		"Content-Security-Policy",
		"X-Content-Type-Options",
		"Referrer-Policy",
		"Cache-Control",
	} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}
