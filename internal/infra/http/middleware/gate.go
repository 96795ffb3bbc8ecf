package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/xavierca1/leadtrack/internal/usecase"
)

type gateResponse struct {
	State    string `json:"state"`
	Redirect string `json:"redirect,omitempty"`
	Reason   string `json:"reason"`
}

// RequireView lets the request through only when the session may render
// the view at path. Otherwise it answers with a redirect or, while the
// session has no usable profile, with a loading response.
func RequireView(path string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var snap usecase.SessionSnapshot
			if sess := SessionFrom(r.Context()); sess != nil {
				snap = sess.Snapshot()
			} else {
				snap.State = usecase.StateAnonymous
			}

			decision := usecase.ResolveRoute(path, snap)
			switch decision.Kind {
			case usecase.RouteRender:
				next.ServeHTTP(w, r)
			case usecase.RouteRedirect:
				w.Header().Set("Location", decision.Target)
				writeGate(w, http.StatusSeeOther, gateResponse{State: "redirect", Redirect: decision.Target, Reason: decision.Reason})
			default:
				writeGate(w, http.StatusAccepted, gateResponse{State: "loading", Reason: decision.Reason})
			}
		})
	}
}

func writeGate(w http.ResponseWriter, status int, body gateResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
