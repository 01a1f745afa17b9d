package actor

import (
	"fmt"
	"math"
)

// Role tags the purpose of a connection between two actors.
type Role string

// Direction tells on which end of a connection an actor sits.
type Direction int

// Directions of a connection, seen from one actor.
const (
	// Input ports receive the connection, the actor is the destination.
	Input Direction = iota
	// Output ports start the connection, the actor is the source.
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Unbounded is the maximum of a variadic constraint.
const Unbounded = math.MaxInt

// A Constraint limits the number of connections of a role.
type Constraint struct {
	Role Role
	Min  int
	Max  int
}

// RequireOne requires exactly one connection of the role.
func RequireOne(role Role) Constraint {
	return Constraint{Role: role, Min: 1, Max: 1}
}

// RequireExactly requires exactly n connections of the role.
func RequireExactly(role Role, n int) Constraint {
	return Constraint{Role: role, Min: n, Max: n}
}

// Variadic accepts any number of connections of the role, including none.
func Variadic(role Role) Constraint {
	return Constraint{Role: role, Min: 0, Max: Unbounded}
}

// Allows checks if the number of connections satisfies the constraint.
func (c Constraint) Allows(n int) bool {
	return n >= c.Min && n <= c.Max
}

func (c Constraint) String() string {
	switch {
	case c.Max == Unbounded:
		return fmt.Sprintf("%s(>=%d)", c.Role, c.Min)
	case c.Min == c.Max:
		return fmt.Sprintf("%s(=%d)", c.Role, c.Min)
	default:
		return fmt.Sprintf("%s(%d..%d)", c.Role, c.Min, c.Max)
	}
}

// PortSpec declares the constraints of all the roles an actor accepts.
type PortSpec struct {
	Inputs  []Constraint
	Outputs []Constraint
}

func (s PortSpec) constraint(dir Direction, role Role) (Constraint, bool) {
	list := s.Inputs
	if dir == Output {
		list = s.Outputs
	}

	for _, c := range list {
		if c.Role == role {
			return c, true
		}
	}

	return Constraint{}, false
}

// A ConstraintError reports a connection graph that does not satisfy an
// actor's port spec.
type ConstraintError struct {
	Actor      string
	Direction  Direction
	Role       Role
	Want       Constraint
	Got        int
	Undeclared bool
}

func (e *ConstraintError) Error() string {
	if e.Undeclared {
		return fmt.Sprintf(
			"actor %s does not accept %s role %s",
			e.Actor, e.Direction, e.Role)
	}

	return fmt.Sprintf(
		"actor %s has %d %s connections of role %s, requires %s",
		e.Actor, e.Got, e.Direction, e.Role, e.Want)
}
