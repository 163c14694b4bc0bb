// Package config resolves and validates mqttsub configuration.
//
// This package manages:
//   - Registering command-line flags and binding them to Viper
//   - Overriding with MQTTSUB_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// There is no configuration file. Precedence is flag, then environment, then default.
//
// Security Considerations:
//   - Prefer MQTTSUB_AUTH_PASSWORD over --password so the secret stays out of
//     the process list and shell history
//
// Usage:
//
//	v := viper.New()
//	config.BindFlags(cmd, v)
//	cfg, err := config.Load(v)
//	if errors.Is(err, config.ErrNoTopics) {
//	    // usage error
//	}
package config
