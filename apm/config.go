package apm

import (
	"fmt"
	"os"

	"github.com/shogo82148/apm-yasdk-go/apm/apmstats"
	"github.com/shogo82148/apm-yasdk-go/internal/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is a configuration of the tracer.
type Config struct {
	// AgentAddress is the "host:port" of the trace agent.
	// Its overwrites the address from APM_AGENT_ADDRESS environment value.
	// By default, the SDK uses 127.0.0.1:8126.
	// It is ignored if Writer is set.
	AgentAddress string `yaml:"agent_address"`

	// Enabled is the initial state of the tracer.
	// Its overwrites the value from APM_TRACE_ENABLED environment value.
	// By default, the tracer is enabled.
	Enabled *bool `yaml:"enabled"`

	// Writer receives the finished spans.
	// By default, an AgentWriter connected to AgentAddress is used.
	Writer Writer `yaml:"-"`

	// Stats receives the operational metrics of the default writer.
	Stats apmstats.Stats `yaml:"-"`
}

// LoadConfig reads the YAML configuration file at path.
// Unknown keys are ignored, so the file may carry the configurations of the integrations as well.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("apm: failed to read configuration file %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("apm: failed to parse configuration file %q: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) agentAddress() string {
	if c != nil && c.AgentAddress != "" {
		return c.AgentAddress
	}
	return envconfig.AgentAddress()
}

func (c *Config) enabled() bool {
	if c != nil && c.Enabled != nil {
		return *c.Enabled
	}
	if enabled, ok := envconfig.TraceEnabled(); ok {
		return enabled
	}
	return true
}

func (c *Config) stats() apmstats.Stats {
	if c != nil && c.Stats != nil {
		return c.Stats
	}
	return apmstats.Null{}
}

func (c *Config) writer() Writer {
	if c != nil && c.Writer != nil {
		return c.Writer
	}
	return NewAgentWriter(c.agentAddress(), c.stats())
}
