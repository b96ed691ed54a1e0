package web

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const sessionCookie = "sitemeter_session"

// SessionContext carries the per-request session identity and the open
// visit id through the handler chain.
type SessionContext struct {
	SessionID string
	VisitID   int64
}

type sessionKey struct{}

// SessionFromContext returns the request's session context, if the
// tracking middleware ran for this request.
func SessionFromContext(ctx context.Context) (SessionContext, bool) {
	sc, ok := ctx.Value(sessionKey{}).(SessionContext)
	return sc, ok
}

// ensureSession returns the signed session id from the request cookie,
// minting and setting a new one when absent or tampered with.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		var sid string
		if err := s.cookies.Decode(sessionCookie, c.Value, &sid); err == nil && sid != "" {
			return sid
		}
	}

	sid := uuid.NewString()
	if encoded, err := s.cookies.Encode(sessionCookie, sid); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    encoded,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sid
}
