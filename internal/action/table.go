package action

import (
	"fmt"
	"strings"

	"github.com/taskgate/taskgate/internal/infrastructure/config"
)

// Route is one HTTP route derived from a configured action.
type Route struct {
	// Name is the action name exactly as configured.
	Name string

	// Path is the derived route path, including the leading slash.
	Path string

	// Command is the shell command to run when the route is requested.
	Command string
}

// Table is the immutable set of routes the gateway serves.
//
// It is built once from the validated action list before the listener
// binds and never changes afterwards; changing the routes means editing
// the configuration and restarting the process.
//
// Thread Safety:
//   - The table is read-only after BuildTable returns; all methods are
//     safe for concurrent use.
type Table struct {
	routes []Route
	byPath map[string]Route
}

// RoutePath derives the route path for an action name: the lowercased
// name with every space replaced by an underscore, behind a leading
// slash. No other characters are transformed.
//
//	"Show Users" -> "/show_users"
//	"PING"       -> "/ping"
func RoutePath(name string) string {
	return "/" + strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// BuildTable derives one route per action, in configuration order.
//
// The build is strict: any problem rejects the whole table.
//
//   - Two actions whose names normalise to the same path fail with
//     ErrDuplicateRoute. Renaming one of them is the fix; silently
//     keeping either entry would make the winner an accident of
//     configuration order.
//   - Paths containing router pattern syntax ({, } or *) fail with
//     ErrInvalidRoutePath, since the router would bind something other
//     than the literal path the derivation rule promises.
//   - Paths matching a reserved system path fail with ErrReservedPath.
//
// Parameters:
//   - actions: Validated action list from the configuration
//   - reserved: System paths the gateway claims for itself
//
// Returns:
//   - *Table: Immutable route table
//   - error: Description of the first conflicting action
func BuildTable(actions []config.Action, reserved []string) (*Table, error) {
	reservedSet := make(map[string]struct{}, len(reserved))
	for _, p := range reserved {
		reservedSet[p] = struct{}{}
	}

	t := &Table{
		routes: make([]Route, 0, len(actions)),
		byPath: make(map[string]Route, len(actions)),
	}

	for _, a := range actions {
		path := RoutePath(a.Name)

		if strings.ContainsAny(path, "{}*") {
			return nil, fmt.Errorf("%w: action %q maps to %s", ErrInvalidRoutePath, a.Name, path)
		}
		if _, ok := reservedSet[path]; ok {
			return nil, fmt.Errorf("%w: action %q maps to %s", ErrReservedPath, a.Name, path)
		}
		if prev, ok := t.byPath[path]; ok {
			return nil, fmt.Errorf("%w: actions %q and %q both map to %s", ErrDuplicateRoute, prev.Name, a.Name, path)
		}

		route := Route{
			Name:    a.Name,
			Path:    path,
			Command: a.Cmd,
		}
		t.routes = append(t.routes, route)
		t.byPath[path] = route
	}

	return t, nil
}

// Routes returns the routes in configuration order.
// The returned slice is a copy; callers can safely modify it.
func (t *Table) Routes() []Route {
	routes := make([]Route, len(t.routes))
	copy(routes, t.routes)
	return routes
}

// Lookup returns the route registered for the given path.
func (t *Table) Lookup(path string) (Route, bool) {
	route, ok := t.byPath[path]
	return route, ok
}

// Len returns the number of routes in the table.
func (t *Table) Len() int {
	return len(t.routes)
}
