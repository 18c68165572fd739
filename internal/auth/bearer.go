package auth

import (
	"net/http"
	"strings"
)

// BearerToken extracts the bearer token from a request's Authorization
// header.
//
// The scheme comparison is case-insensitive, matching how HTTP
// authentication schemes are defined. The credential part is returned
// exactly as sent; tokens are opaque and never normalised.
//
// Returns:
//   - string: The token, when present
//   - error: ErrNoCredentials when the header is absent,
//     ErrMalformedHeader when it is not "Bearer <token>"
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredentials
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedHeader
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMalformedHeader
	}

	return token, nil
}
