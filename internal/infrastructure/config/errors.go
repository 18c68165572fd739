package config

import "errors"

// Sentinel errors for configuration failures. The entrypoint matches on
// these with errors.Is to choose a distinct process exit status for each
// failure class.
var (
	// ErrParse indicates the document is not well-formed YAML.
	ErrParse = errors.New("config: malformed document")

	// ErrInvalid indicates well-formed input with the wrong shape:
	// missing or out-of-range port, malformed action entries, a bad
	// token table.
	ErrInvalid = errors.New("config: invalid configuration")

	// ErrActionsNotConfigured indicates the actions key is absent or null.
	ErrActionsNotConfigured = errors.New("config: actions not configured")

	// ErrActionsEmpty indicates the actions key is present but has no
	// entries. Distinct from ErrActionsNotConfigured: the two report
	// different operator mistakes.
	ErrActionsEmpty = errors.New("config: actions list is empty")
)
