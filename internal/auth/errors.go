package auth

import "errors"

// Domain errors for the auth package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, auth.ErrNoCredentials) {
//	    // respond 401
//	}
var (
	// ErrNoCredentials is returned when a request carries no
	// Authorization header.
	ErrNoCredentials = errors.New("auth: no credentials")

	// ErrMalformedHeader is returned when the Authorization header is
	// not a well-formed bearer scheme with a non-empty credential.
	ErrMalformedHeader = errors.New("auth: malformed authorization header")
)
