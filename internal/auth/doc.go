// Package auth provides static bearer-token authentication for taskgate.
//
// The model is deliberately small: the configuration document carries a
// flat table mapping opaque bearer tokens to identities, and every
// protected route checks the presented token against that table. There
// are no accounts, roles, sessions or token issuance: a token is valid
// for as long as it is in the file, and rotating one is a config edit
// plus restart.
//
// The identity resolved for a token exists for observability only
// (request logs and execution history); it grants nothing beyond what
// any valid token grants.
package auth
