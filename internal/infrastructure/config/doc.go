// Package config handles loading and validating taskgate configuration.
//
// This package manages:
//   - Loading the configuration document from a YAML file
//   - Overriding with environment variables
//   - Strict validation of the action list and token table
//   - Default value handling for the optional sections
//
// Validation is all-or-nothing: a single malformed action entry or token
// invalidates the whole document and the process refuses to start. The
// sentinel errors in errors.go keep the failure classes distinguishable,
// in particular an absent actions key versus a present-but-empty one.
//
// Security Considerations:
//   - The token table maps plain bearer tokens to identities; the config
//     file should have restricted permissions (0600)
//   - Broker passwords and metrics tokens can be supplied via environment
//     variables instead of the file
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load; there is no reload path,
//     restarting the process is the reload mechanism
//
// Usage:
//
//	cfg, err := config.Load("/etc/taskgate.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Port)
package config
