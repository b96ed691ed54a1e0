package web

import (
	"context"
	"log"
	"net/http"
	"strings"
)

// trackVisits brackets every non-static request with a visit record:
// open before dispatch, close after the response is produced. The close
// runs in a defer so error responses and handler panics still settle
// the open record. Static assets under /site/ are exempt; /health is
// tracked like any other page.
func (s *Server) trackVisits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/site/") {
			next.ServeHTTP(w, r)
			return
		}

		sid := s.ensureSession(w, r)

		visitID, err := s.store.OpenVisit(s.cfg.UserID, sid, r.URL.Path)
		if err != nil {
			log.Printf("open visit for %s: %v", r.URL.Path, err)
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := s.store.CloseVisit(visitID); err != nil {
				log.Printf("close visit %d: %v", visitID, err)
			}
		}()

		ctx := context.WithValue(r.Context(), sessionKey{}, SessionContext{
			SessionID: sid,
			VisitID:   visitID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
