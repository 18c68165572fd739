// Package action derives HTTP routes from configured actions.
//
// Each action exposes one GET route whose path is the lowercased action
// name with spaces replaced by underscores. BuildTable materialises the
// full route set up front and rejects collisions, reserved paths and
// router pattern syntax, so the serving surface is deterministic before
// the listener ever binds.
//
// The resulting Table is immutable. There is no way to add, remove or
// change routes at runtime; the configuration file is the single source
// of the route set and a restart is the only reload mechanism.
package action
