package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSOptions configures CORS. AllowOrigins of ["*"] admits every origin.
// The admitted origin is always echoed back instead of "*" since the
// storefront sends credentials.
type CORSOptions struct {
	AllowOrigins []string
	// MaxAge lets browsers cache a preflight answer. Zero omits the header.
	MaxAge time.Duration
}

var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsAllowHeaders = strings.Join([]string{
		"Content-Type", "Authorization", HeaderCorrelationID, HeaderUserID,
	}, ", ")
)

// CORS answers preflight requests itself and decorates every other response
// from an admitted origin. A preflight from an origin that is not admitted
// gets a 403 so the browser fails fast.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	origins := newOriginSet(opts.AllowOrigins)
	var maxAge string
	if opts.MaxAge > 0 {
		maxAge = strconv.Itoa(int(opts.MaxAge / time.Second))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			admitted := origin != "" && origins.admits(origin)

			if !preflight {
				if admitted {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Set("Access-Control-Expose-Headers", HeaderCorrelationID)
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			if !admitted {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// originSet matches origins case-insensitively.
type originSet struct {
	any   bool
	exact map[string]struct{}
}

func newOriginSet(allow []string) originSet {
	s := originSet{exact: make(map[string]struct{}, len(allow))}
	for _, a := range allow {
		a = strings.ToLower(strings.TrimSpace(a))
		switch a {
		case "":
		case "*":
			s.any = true
		default:
			s.exact[strings.TrimSuffix(a, "/")] = struct{}{}
		}
	}
	return s
}

func (s originSet) admits(origin string) bool {
	if s.any {
		return true
	}
	_, ok := s.exact[strings.ToLower(strings.TrimSpace(origin))]
	return ok
}
