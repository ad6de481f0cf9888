package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Command           time.Duration // Timeout for a single forward command
	Rollback          time.Duration // Timeout for a single compensation
	SSHDial           time.Duration // Timeout for the SSH connect and handshake
	DockerWait        time.Duration // Timeout for the container runtime to become reachable
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - HOC_TIMEOUT_COMMAND (default: 30m)
//   - HOC_TIMEOUT_ROLLBACK (default: 10m)
//   - HOC_TIMEOUT_SSH_DIAL (default: 10s)
//   - HOC_DOCKER_WAIT (default: 30s)
//   - HOC_RETRY_MAX_ATTEMPTS (default: 5)
//   - HOC_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Command:           parseDuration("HOC_TIMEOUT_COMMAND", 30*time.Minute),
		Rollback:          parseDuration("HOC_TIMEOUT_ROLLBACK", 10*time.Minute),
		SSHDial:           parseDuration("HOC_TIMEOUT_SSH_DIAL", 10*time.Second),
		DockerWait:        parseDuration("HOC_DOCKER_WAIT", 30*time.Second),
		RetryMaxAttempts:  parseInt("HOC_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("HOC_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
