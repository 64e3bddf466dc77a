package middleware

import (
	"net/http"
	"strings"

	"github.com/hyperlocaleyes/backend/core/handler"
)

// CSPDirective is one Content-Security-Policy directive with its source list.
// A directive without sources is emitted bare (e.g. upgrade-insecure-requests).
type CSPDirective struct {
	Name    string
	Sources []string
}

// HeaderPolicy describes the static security headers applied to every response.
// Empty fields are not emitted.
type HeaderPolicy struct {
	// ContentSecurityPolicy lists CSP directives in output order
	ContentSecurityPolicy []CSPDirective

	// FrameOptions controls X-Frame-Options header
	FrameOptions string

	// StrictTransportSecurity controls Strict-Transport-Security header
	StrictTransportSecurity string

	// ContentTypeOptions controls X-Content-Type-Options header
	ContentTypeOptions string

	// ReferrerPolicy controls Referrer-Policy header
	ReferrerPolicy string

	// CrossOriginResourcePolicy controls Cross-Origin-Resource-Policy header
	CrossOriginResourcePolicy string

	// CrossOriginOpenerPolicy controls Cross-Origin-Opener-Policy header
	CrossOriginOpenerPolicy string

	// CrossOriginEmbedderPolicy controls Cross-Origin-Embedder-Policy header
	CrossOriginEmbedderPolicy string

	// DNSPrefetchControl controls X-DNS-Prefetch-Control header
	DNSPrefetchControl string

	// DownloadOptions controls X-Download-Options header
	DownloadOptions string

	// XSSProtection controls X-XSS-Protection header
	XSSProtection string

	// PermissionsPolicy controls Permissions-Policy header
	PermissionsPolicy string

	// CustomHeaders allows adding additional custom security headers
	CustomHeaders map[string]string

	// RemoveHeaders lists framework-identifying headers to suppress
	RemoveHeaders []string

	// IsDevelopment disables HSTS for local development
	IsDevelopment bool
}

// DefaultHeaderPolicy returns the production header policy of the API.
func DefaultHeaderPolicy() HeaderPolicy {
	return HeaderPolicy{
		ContentSecurityPolicy: []CSPDirective{
			{Name: "default-src", Sources: []string{"'self'"}},
			{Name: "script-src", Sources: []string{
				"'self'", "'unsafe-inline'", "'unsafe-eval'",
				"https://www.google.com",
				"https://www.gstatic.com",
				"https://www.googletagmanager.com",
				"https://www.google-analytics.com",
			}},
			{Name: "style-src", Sources: []string{"'self'", "'unsafe-inline'", "https://fonts.googleapis.com"}},
			{Name: "img-src", Sources: []string{
				"'self'", "data:", "blob:",
				"https://*.google-analytics.com",
				"https://*.g.doubleclick.net",
				"https://*.google.com",
				"https://*.googleapis.com",
				"https://*.gstatic.com",
			}},
			{Name: "font-src", Sources: []string{"'self'", "https://fonts.gstatic.com", "data:"}},
			{Name: "connect-src", Sources: []string{
				"'self'",
				"https://*.google-analytics.com",
				"https://*.analytics.google.com",
				"https://*.g.doubleclick.net",
			}},
			{Name: "frame-src", Sources: []string{"'self'", "https://www.google.com", "https://www.youtube.com"}},
			{Name: "base-uri", Sources: []string{"'self'"}},
			{Name: "form-action", Sources: []string{"'self'"}},
			{Name: "frame-ancestors", Sources: []string{"'self'"}},
			{Name: "object-src", Sources: []string{"'none'"}},
			{Name: "script-src-attr", Sources: []string{"'none'"}},
			{Name: "upgrade-insecure-requests"},
		},
		FrameOptions:              "DENY",
		StrictTransportSecurity:   "max-age=15552000; includeSubDomains; preload",
		ContentTypeOptions:        "nosniff",
		ReferrerPolicy:            "same-origin",
		CrossOriginResourcePolicy: "same-site",
		CrossOriginOpenerPolicy:   "same-origin",
		DNSPrefetchControl:        "on",
		DownloadOptions:           "noopen",
		XSSProtection:             "0",
		RemoveHeaders:             []string{"X-Powered-By", "Server"},
	}
}

// CSP renders the Content-Security-Policy header value.
func (p HeaderPolicy) CSP() string {
	parts := make([]string, 0, len(p.ContentSecurityPolicy))
	for _, d := range p.ContentSecurityPolicy {
		if len(d.Sources) == 0 {
			parts = append(parts, d.Name)
			continue
		}
		parts = append(parts, d.Name+" "+strings.Join(d.Sources, " "))
	}
	return strings.Join(parts, "; ")
}

// HeaderSet is a compiled HeaderPolicy. It is read-only and safe for
// concurrent use.
type HeaderSet struct {
	set    [][2]string
	remove []string
}

// Build compiles the policy into a HeaderSet.
func (p HeaderPolicy) Build() HeaderSet {
	var hs HeaderSet
	add := func(name, value string) {
		if value != "" {
			hs.set = append(hs.set, [2]string{http.CanonicalHeaderKey(name), value})
		}
	}

	hsts := p.StrictTransportSecurity
	if p.IsDevelopment {
		hsts = ""
	}

	add("Content-Security-Policy", p.CSP())
	add("X-Frame-Options", p.FrameOptions)
	add("Strict-Transport-Security", hsts)
	add("X-Content-Type-Options", p.ContentTypeOptions)
	add("Referrer-Policy", p.ReferrerPolicy)
	add("Cross-Origin-Resource-Policy", p.CrossOriginResourcePolicy)
	add("Cross-Origin-Opener-Policy", p.CrossOriginOpenerPolicy)
	add("Cross-Origin-Embedder-Policy", p.CrossOriginEmbedderPolicy)
	add("X-DNS-Prefetch-Control", p.DNSPrefetchControl)
	add("X-Download-Options", p.DownloadOptions)
	add("X-XSS-Protection", p.XSSProtection)
	add("Permissions-Policy", p.PermissionsPolicy)
	for name, value := range p.CustomHeaders {
		add(name, value)
	}

	hs.remove = append(hs.remove, p.RemoveHeaders...)
	return hs
}

// Apply sets every header of the policy on h and removes suppressed ones.
func (p HeaderPolicy) Apply(h http.Header) {
	p.Build().Apply(h)
}

// Apply sets the compiled headers on h.
func (hs HeaderSet) Apply(h http.Header) {
	for _, kv := range hs.set {
		h.Set(kv[0], kv[1])
	}
	for _, name := range hs.remove {
		h.Del(name)
	}
}

// SecurityHeaders applies policy to every response. The policy is compiled
// once; headers are set before the handler runs, so they are present on
// success, error and short-circuit responses alike.
//
//	r.Use(middleware.SecurityHeaders[*router.Context](middleware.DefaultHeaderPolicy()))
func SecurityHeaders[C handler.Context](policy HeaderPolicy) handler.Middleware[C] {
	set := policy.Build()

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			set.Apply(ctx.ResponseWriter().Header())

			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				sw := &scrubWriter{ResponseWriter: w, remove: set.remove}
				err := resp(sw, r)
				if !sw.wrote {
					// The error handler renders through the original writer.
					sw.scrub()
				}
				return err
			}
		}
	}
}

// scrubWriter removes suppressed headers right before they are sent, after
// the handler had its last chance to set them.
type scrubWriter struct {
	http.ResponseWriter
	remove []string
	wrote  bool
}

func (sw *scrubWriter) scrub() {
	h := sw.ResponseWriter.Header()
	for _, name := range sw.remove {
		h.Del(name)
	}
}

func (sw *scrubWriter) WriteHeader(statusCode int) {
	if !sw.wrote {
		sw.scrub()
		sw.wrote = true
	}
	sw.ResponseWriter.WriteHeader(statusCode)
}

func (sw *scrubWriter) Write(b []byte) (int, error) {
	if !sw.wrote {
		sw.WriteHeader(http.StatusOK)
	}
	return sw.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (sw *scrubWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
