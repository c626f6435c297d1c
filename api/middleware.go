package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"safeflow/api/handlers"
	"safeflow/core/auth"
	"safeflow/core/rbac"
)

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Errorf("PANIC %s %s: %v\n%s", r.Method, r.URL.Path, rec, string(debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		s.logger.Printf("REQ %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		user := "-"
		if v := r.Context().Value(auth.SessionContextKey); v != nil {
			user = v.(*auth.Session).User.Name
		}
		s.logger.Printf("RESP %s %s user=%s status=%d dur=%s bytes=%d", r.Method, r.URL.Path, user, rec.status, time.Since(start), rec.size)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// withSession resolves the session cookie into a *auth.Session on the
// request context and slides the expiry window.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(handlers.SessionCookie)
		if err != nil || cookie.Value == "" {
			s.logger.Printf("AUTH fail (missing cookie) %s %s", r.Method, r.URL.Path)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		sess := s.sessions.Get(cookie.Value)
		if sess == nil {
			s.logger.Printf("AUTH fail (session not found) %s %s", r.Method, r.URL.Path)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		s.sessions.Touch(sess.ID)
		ctx := context.WithValue(r.Context(), auth.SessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCapability rejects requests whose session role lacks the
// capability. The stores run the same check again; this layer exists to
// answer early with 403 before any decoding happens.
func (s *Server) requireCapability(cap rbac.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		val := r.Context().Value(auth.SessionContextKey)
		if val == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		sess := val.(*auth.Session)
		if !s.policy.Allowed(sess.User.Role, cap) {
			s.logger.Printf("PERM fail %s %s user=%s role=%s need=%s", r.Method, r.URL.Path, sess.User.Name, sess.User.Role, cap)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}
}
