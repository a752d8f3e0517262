package v1

import "net/http"

// requireDispatch wraps a handler and returns 503 if the scheduler is
// not configured.
func (s *Server) requireDispatch(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Dispatch == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Scheduler not configured")
			return
		}
		next(w, r)
	}
}
