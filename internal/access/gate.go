// Package access decides whether a session may reach a view.
package access

import "redaid/pkg/types"

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

type Capability string

const (
	Public        Capability = "public"
	Authenticated Capability = "authenticated"
	RoleDonor     Capability = "role:donor"
	RoleVolunteer Capability = "role:volunteer"
	RoleAdmin     Capability = "role:admin"
)

// Role returns the role a capability requires, if any.
func (c Capability) Role() (types.Role, bool) {
	switch c {
	case RoleDonor:
		return types.RoleDonor, true
	case RoleVolunteer:
		return types.RoleVolunteer, true
	case RoleAdmin:
		return types.RoleAdmin, true
	}
	return "", false
}

// View is a navigation target annotated with the capability it requires.
type View struct {
	Path     string
	Requires Capability
}

type Outcome int

const (
	Allow Outcome = iota
	// Wait means the session is still resolving. Render a neutral state and
	// evaluate again once resolved; never redirect.
	Wait
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	}
	return "deny"
}

type Decision struct {
	Outcome  Outcome
	Reason   string
	Redirect string
	// ReturnTo is the originally requested path, set on unauthenticated denials
	// so the caller can send the user back after login.
	ReturnTo string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// Decide evaluates the navigation rules in order. A nil session is treated as
// resolved and unauthenticated.
func Decide(session *types.Session, view View) Decision {
	if view.Requires == Public || view.Requires == "" {
		return Decision{Outcome: Allow}
	}

	if session == nil {
		session = &types.Session{State: types.SessionResolved}
	}

	if session.State == types.SessionLoading {
		return Decision{Outcome: Wait}
	}

	if !session.IsAuthenticated {
		return Decision{
			Outcome:  Deny,
			Reason:   types.ReasonUnauthenticated,
			Redirect: LoginPath,
			ReturnTo: view.Path,
		}
	}

	required, ok := view.Requires.Role()
	if !ok {
		return Decision{Outcome: Allow}
	}

	// A failed role lookup leaves Role nil, so this fails closed.
	if session.Role == nil || *session.Role != required {
		return Decision{
			Outcome:  Deny,
			Reason:   types.ReasonForbidden,
			Redirect: DashboardPath,
		}
	}

	return Decision{Outcome: Allow}
}
