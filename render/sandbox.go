package render

import "strings"

// Sandbox is the capability set granted to untrusted markup. It is a hard
// security contract, not a styling detail: with AllowSameOrigin permanently
// false the frame gets an opaque origin, which denies host-page storage,
// cookies, and DOM access. Scripts may run only inside the frame, and
// top-level navigation requires an explicit user gesture.
type Sandbox struct {
	AllowScripts                       bool `json:"allow_scripts"`
	AllowTopNavigationByUserActivation bool `json:"allow_top_navigation_by_user_activation"`
}

// DefaultSandbox grants the stamp markup contract: confined script
// execution, gesture-gated navigation, nothing else.
func DefaultSandbox() Sandbox {
	return Sandbox{
		AllowScripts:                       true,
		AllowTopNavigationByUserActivation: true,
	}
}

// Tokens renders the capability set as iframe sandbox attribute tokens.
// An empty capability set renders as "" (fully locked down; the sandbox
// attribute itself must still be present on the frame).
func (s Sandbox) Tokens() string {
	var t []string
	if s.AllowScripts {
		t = append(t, "allow-scripts")
	}
	if s.AllowTopNavigationByUserActivation {
		t = append(t, "allow-top-navigation-by-user-activation")
	}
	return strings.Join(t, " ")
}
