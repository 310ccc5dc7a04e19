package plugin

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Requirement names a plugin that must be enabled before the declaring
// plugin, optionally constrained to a semver range ("vault@>=1.0.0").
type Requirement struct {
	Name       string
	Constraint *semver.Constraints // nil means any version
}

// ParseRequirement parses "name" or "name@constraint".
func ParseRequirement(s string) (Requirement, error) {
	name, raw, found := strings.Cut(s, "@")
	if name == "" {
		return Requirement{}, fmt.Errorf("empty requirement %q", s)
	}
	if !found {
		return Requirement{Name: name}, nil
	}
	c, err := semver.NewConstraint(raw)
	if err != nil {
		return Requirement{}, fmt.Errorf("requirement %q: bad constraint: %w", s, err)
	}
	return Requirement{Name: name, Constraint: c}, nil
}

func (r Requirement) String() string {
	if r.Constraint == nil {
		return r.Name
	}
	return r.Name + "@" + r.Constraint.String()
}

// Descriptor is the manager's record of one plugin.
type Descriptor struct {
	Name     string
	Version  *semver.Version
	Requires []Requirement
	State    State
	Err      error // Failed reason, nil otherwise

	// ContributedPaths records what the plugin attached to the namespace
	// tree, for clean unload.
	ContributedPaths [][]string
}
