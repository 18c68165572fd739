package auth

// Verifier resolves static bearer tokens to identities.
//
// The token table comes from the configuration document and never
// changes while the process runs; rotating a token means editing the
// configuration and restarting the gateway.
//
// Thread Safety:
//   - The table is copied at construction and read-only afterwards;
//     Verify is safe for concurrent use.
type Verifier struct {
	tokens map[string]string
}

// NewVerifier creates a Verifier from a token -> identity table.
// The table is copied so later mutation of the argument cannot change
// what the gateway accepts.
func NewVerifier(tokens map[string]string) *Verifier {
	copied := make(map[string]string, len(tokens))
	for token, identity := range tokens {
		copied[token] = identity
	}
	return &Verifier{tokens: copied}
}

// Verify looks up a bearer token and returns the identity it belongs
// to. The second return value reports whether the token is known.
func (v *Verifier) Verify(token string) (string, bool) {
	identity, ok := v.tokens[token]
	return identity, ok
}

// Len returns the number of tokens in the table.
func (v *Verifier) Len() int {
	return len(v.tokens)
}
