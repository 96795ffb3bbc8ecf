package usecase

import "strings"

const (
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathDashboard = "/dashboard"
	PathAdmin     = "/admin"
)

type RouteKind int

const (
	RouteRender RouteKind = iota
	RouteRedirect
	// RouteLoading holds the view until the session settles. Nothing is
	// rendered and no redirect happens.
	RouteLoading
)

func (k RouteKind) String() string {
	switch k {
	case RouteRender:
		return "render"
	case RouteRedirect:
		return "redirect"
	case RouteLoading:
		return "loading"
	}
	return "unknown"
}

const (
	ReasonPublic          = "public"
	ReasonAuthorized      = "authorized"
	ReasonUnknownPath     = "unknown_path"
	ReasonUnauthenticated = "unauthenticated"
	ReasonSessionLoading  = "session_loading"
	ReasonProfileMissing  = "profile_missing"
	ReasonRoleMismatch    = "role_mismatch"
)

type RouteDecision struct {
	Kind   RouteKind
	Target string
	Reason string
}

// ResolveRoute gates a view path on the session. Protected views never
// render while the session is still loading or has no profile, and a role
// mismatch sends the user to their own home instead of an error page.
func ResolveRoute(path string, snap SessionSnapshot) RouteDecision {
	path = normalizePath(path)

	switch path {
	case PathLogin, PathRegister:
		return RouteDecision{Kind: RouteRender, Target: path, Reason: ReasonPublic}
	case PathDashboard, PathAdmin:
	default:
		return RouteDecision{Kind: RouteRedirect, Target: PathLogin, Reason: ReasonUnknownPath}
	}

	switch snap.State {
	case StateUninitialized, StateLoading:
		return RouteDecision{Kind: RouteLoading, Target: path, Reason: ReasonSessionLoading}
	case StateProfileMissing:
		return RouteDecision{Kind: RouteLoading, Target: path, Reason: ReasonProfileMissing}
	case StateReady:
	default:
		return RouteDecision{Kind: RouteRedirect, Target: PathLogin, Reason: ReasonUnauthenticated}
	}
	if snap.Identity == nil || snap.Account == nil {
		return RouteDecision{Kind: RouteRedirect, Target: PathLogin, Reason: ReasonUnauthenticated}
	}

	if (path == PathAdmin) != snap.Account.IsAdmin() {
		return RouteDecision{Kind: RouteRedirect, Target: snap.Account.Role.Home(), Reason: ReasonRoleMismatch}
	}
	return RouteDecision{Kind: RouteRender, Target: path, Reason: ReasonAuthorized}
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
