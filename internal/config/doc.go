// Package config loads the hoc configuration file and procedure definitions.
//
// The [Config] struct holds the operator's environment: where run records
// live, how to reach container runtimes and remote hosts, where named
// templates come from and where finished runs are archived. Procedure files
// are decoded into [procedure.Procedure] values with targets completed from
// the configuration defaults.
package config
