package action

import "errors"

// Domain errors for the action package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, action.ErrDuplicateRoute) {
//	    // handle colliding action names
//	}
var (
	// ErrDuplicateRoute is returned when two action names normalise to
	// the same route path.
	ErrDuplicateRoute = errors.New("action: duplicate route")

	// ErrReservedPath is returned when an action name normalises to a
	// path the gateway reserves for system endpoints.
	ErrReservedPath = errors.New("action: route path is reserved")

	// ErrInvalidRoutePath is returned when a derived path contains
	// router pattern syntax and could not be registered literally.
	ErrInvalidRoutePath = errors.New("action: invalid route path")
)
