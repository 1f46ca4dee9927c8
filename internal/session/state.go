package session

import "github.com/parent-portal/parent_portal/internal/auth"

// State is the top-level area the app must be in. Exactly one is active.
type State int

const (
	// StateBootstrapping holds until persisted flags finish loading.
	StateBootstrapping State = iota
	// StateOnboarding shows the introductory slides.
	StateOnboarding
	// StateUnauthenticated shows the login flow.
	StateUnauthenticated
	// StateAuthenticated shows the signed-in app.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateOnboarding:
		return "onboarding"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Area is the navigation area the UI currently renders, reported back to
// the machine via SetArea as the router settles.
type Area string

const (
	AreaNone       Area = ""
	AreaOnboarding Area = "onboarding"
	AreaAuth       Area = "auth"
	AreaParent     Area = "parent"
)

// Routes the machine redirects to.
const (
	RouteOnboarding = "/onboarding"
	RouteLogin      = "/auth/login"
	RouteDashboard  = "/dashboard"
)

// Redirect is a navigation command issued by the machine.
type Redirect struct {
	Target string
}

// Navigator receives redirects. The UI layer plugs its router in here.
type Navigator func(Redirect)

// UserSession is the signed-in user plus bearer token, mirrored to the
// local store under storage.KeyUserSession.
type UserSession struct {
	User  auth.Profile `json:"user"`
	Token string       `json:"token"`
}

// snapshot is the complete input of the gating decision. Nothing else may
// influence it.
type snapshot struct {
	loading        bool
	seenOnboarding bool
	session        *UserSession
	area           Area
}

// resolve is the navigation-gating transition table: a pure function from
// snapshot to state plus an optional redirect. Onboarding is checked before
// authentication, and an authenticated user outside the auth area is left
// where they are (deep links survive).
func resolve(s snapshot) (State, *Redirect) {
	switch {
	case s.loading:
		return StateBootstrapping, nil
	case !s.seenOnboarding && s.area != AreaOnboarding:
		return StateOnboarding, &Redirect{Target: RouteOnboarding}
	case !s.seenOnboarding:
		return StateOnboarding, nil
	case s.session == nil && s.area != AreaAuth:
		return StateUnauthenticated, &Redirect{Target: RouteLogin}
	case s.session == nil:
		return StateUnauthenticated, nil
	case s.area == AreaAuth:
		return StateAuthenticated, &Redirect{Target: RouteDashboard}
	default:
		return StateAuthenticated, nil
	}
}
