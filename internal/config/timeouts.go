package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timing values for provisioning and
// teardown. These values can be customized via environment variables.
type Timeouts struct {
	RunningPollPeriod    time.Duration // Delay between running-state polls
	RunningMaxAttempts   int           // Poll budget while waiting for running state
	TerminatePollPeriod  time.Duration // Delay between terminated-state polls
	TerminateMaxAttempts int           // Poll budget while waiting for termination
	MaxLaunchCycles      int           // Upper bound on shortfall relaunch cycles
	Delete               time.Duration // Timeout for ancillary resource deletion
	RetryMaxAttempts     int           // API retry attempts for transient failures
	RetryInitialDelay    time.Duration // Initial delay between API retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - NODEGROUP_RUNNING_POLL_PERIOD (default: 5s)
//   - NODEGROUP_RUNNING_MAX_ATTEMPTS (default: 60)
//   - NODEGROUP_TERMINATE_POLL_PERIOD (default: 5s)
//   - NODEGROUP_TERMINATE_MAX_ATTEMPTS (default: 120)
//   - NODEGROUP_MAX_LAUNCH_CYCLES (default: 10)
//   - NODEGROUP_TIMEOUT_DELETE (default: 5m)
//   - NODEGROUP_RETRY_MAX_ATTEMPTS (default: 5)
//   - NODEGROUP_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		RunningPollPeriod:    parseDuration("NODEGROUP_RUNNING_POLL_PERIOD", 5*time.Second),
		RunningMaxAttempts:   parseInt("NODEGROUP_RUNNING_MAX_ATTEMPTS", 60),
		TerminatePollPeriod:  parseDuration("NODEGROUP_TERMINATE_POLL_PERIOD", 5*time.Second),
		TerminateMaxAttempts: parseInt("NODEGROUP_TERMINATE_MAX_ATTEMPTS", 120),
		MaxLaunchCycles:      parseInt("NODEGROUP_MAX_LAUNCH_CYCLES", 10),
		Delete:               parseDuration("NODEGROUP_TIMEOUT_DELETE", 5*time.Minute),
		RetryMaxAttempts:     parseInt("NODEGROUP_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay:    parseDuration("NODEGROUP_RETRY_INITIAL_DELAY", 1*time.Second),
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
