package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securedRouter(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.GET("/documents/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	return r
}

func TestSecurityHeaders_Options(t *testing.T) {
	cases := []struct {
		name  string
		opt   SecurityOptions
		tls   bool
		proto string
		want  map[string]string
	}{
		{
			name: "baseline only",
			want: map[string]string{
				"X-Content-Type-Options":            "nosniff",
				"X-Frame-Options":                   "DENY",
				"Referrer-Policy":                   "no-referrer",
				"Permissions-Policy":                "",
				"X-Permitted-Cross-Domain-Policies": "",
				"Cache-Control":                     "",
				"Strict-Transport-Security":         "",
			},
		},
		{
			name: "policy and no-store",
			opt:  SecurityOptions{NoStore: true, EnablePolicy: true},
			want: map[string]string{
				"X-Permitted-Cross-Domain-Policies": "none",
				"Cache-Control":                     "no-store",
				"Pragma":                            "no-cache",
				"Expires":                           "0",
			},
		},
		{
			name: "hsts over tls",
			opt:  SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour},
			tls:  true,
			want: map[string]string{"Strict-Transport-Security": "max-age=86400; includeSubDomains; preload"},
		},
		{
			name:  "hsts default age behind proxy",
			opt:   SecurityOptions{EnableHSTS: true},
			proto: "HTTPS",
			want:  map[string]string{"Strict-Transport-Security": "max-age=15552000; includeSubDomains; preload"},
		},
		{
			name: "hsts skipped on plain http",
			opt:  SecurityOptions{EnableHSTS: true},
			want: map[string]string{"Strict-Transport-Security": ""},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/documents/62-0505", nil)
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tc.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			w := httptest.NewRecorder()
			securedRouter(tc.opt).ServeHTTP(w, req)

			for k, v := range tc.want {
				if got := w.Header().Get(k); got != v {
					t.Fatalf("%s = %q; want %q", k, got, v)
				}
			}
			if w.Header().Get("Permissions-Policy") == "" && tc.opt.EnablePolicy {
				t.Fatalf("Permissions-Policy missing")
			}
		})
	}
}

func TestSecurityHeaders_ExposeList(t *testing.T) {
	cases := []struct {
		name, existing, want string
	}{
		{"fresh", "", "X-Request-ID, ETag, X-Search-Backend, Idempotency-Replayed"},
		{"appends to cors list", "Content-Length", "Content-Length, X-Request-ID, ETag, X-Search-Backend, Idempotency-Replayed"},
		{"case-insensitive dedupe", "x-request-id, etag", "x-request-id, etag, X-Search-Backend, Idempotency-Replayed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pre := func(c *gin.Context) {
				if tc.existing != "" {
					c.Header("Access-Control-Expose-Headers", tc.existing)
				}
				c.Next()
			}
			w := httptest.NewRecorder()
			securedRouter(SecurityOptions{}, pre).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/62-0505", nil))
			if got := w.Header().Get("Access-Control-Expose-Headers"); got != tc.want {
				t.Fatalf("expose = %q; want %q", got, tc.want)
			}
		})
	}
}

func Test_isHTTPS(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	viaTLS := httptest.NewRequest(http.MethodGet, "/", nil)
	viaTLS.TLS = &tls.ConnectionState{}
	viaProxy := httptest.NewRequest(http.MethodGet, "/", nil)
	viaProxy.Header.Set("X-Forwarded-Proto", "https")
	downgraded := httptest.NewRequest(http.MethodGet, "/", nil)
	downgraded.Header.Set("X-Forwarded-Proto", "http")

	for req, want := range map[*http.Request]bool{plain: false, viaTLS: true, viaProxy: true, downgraded: false} {
		if got := isHTTPS(req); got != want {
			t.Fatalf("isHTTPS(tls=%v proto=%q) = %v", req.TLS != nil, req.Header.Get("X-Forwarded-Proto"), got)
		}
	}
}
