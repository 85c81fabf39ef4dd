// Package envconfig reads the environment variables that configure the tracer.
package envconfig

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAgentAddress is the address of the trace agent used when nothing is configured.
const DefaultAgentAddress = "127.0.0.1:8126"

// AgentAddress returns the address of the trace agent from APM_AGENT_ADDRESS.
func AgentAddress() string {
	addr := strings.TrimSpace(os.Getenv("APM_AGENT_ADDRESS"))
	if addr == "" {
		return DefaultAgentAddress
	}
	return addr
}

// TraceEnabled returns the value of APM_TRACE_ENABLED.
// The second return value is false if the variable is unset or invalid.
func TraceEnabled() (enabled, ok bool) {
	v := os.Getenv("APM_TRACE_ENABLED")
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// DebugMode reports whether APM_DEBUG_MODE is set.
func DebugMode() bool {
	return os.Getenv("APM_DEBUG_MODE") != ""
}

// LogLevel returns the lower-cased value of APM_LOG_LEVEL.
func LogLevel() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv("APM_LOG_LEVEL")))
}

// WriteTimeout returns the timeout for sending spans to the agent.
func WriteTimeout() time.Duration {
	const defaultTimeout = 100 * time.Millisecond

	timeout := os.Getenv("APM_AGENT_WRITE_TIMEOUT")
	if timeout == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return defaultTimeout
	}
	if d <= 0 {
		return defaultTimeout
	}
	return d
}
