// Package config provides configuration management for Guardian.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("guardian.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GUARDIAN_SECTION_FIELD:
//
//   - GUARDIAN_PROXY_LISTEN_ADDRESS overrides proxy.listen_address
//   - GUARDIAN_UPSTREAM_API_KEY overrides upstream.api_key
//   - GUARDIAN_AUDIT_KAFKA_BROKERS overrides audit.kafka.brokers (comma separated)
//   - GUARDIAN_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// A value that does not parse is a validation error.
//
// # Configuration Precedence
//
//  1. Values from the YAML file
//  2. Default values for anything the file left unset
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validate collects every problem into a *ValidationError so that one run
// reports all of them:
//
//	var verr *config.ValidationError
//	if errors.As(err, &verr) {
//	    for _, fe := range verr.Errors {
//	        fmt.Println(fe.Field, fe.Message)
//	    }
//	}
//
// # Singleton
//
// The command layer calls Initialize once and reads the result with
// GetConfig. Library packages receive their section explicitly.
package config
