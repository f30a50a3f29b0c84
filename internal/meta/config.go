package meta

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"

	"dnsanon/internal/protocol"
)

// Defaults applied to options omitted from the configuration file.
const (
	DefaultDomain        = "example.com"
	DefaultAddress       = "0.0.0.0"
	DefaultSchema        = "dnsmasq"
	DefaultFlushInterval = time.Second
	DefaultDeadline      = 5 * time.Second
)

// ApplicationConfig is a top-level block for application-level meta configuration.
type ApplicationConfig struct {
	SentryDSN string `yaml:"sentry_dsn"`
}

// MetricsConfig is a top-level block for metrics configuration.
type MetricsConfig struct {
	Statsd *struct {
		Address    string  `yaml:"addr"`
		SampleRate float32 `yaml:"sample_rate"`
	} `yaml:"statsd"`
}

// AnonymizerConfig is a top-level block for the replacement values and the log format.
type AnonymizerConfig struct {
	Domain  string `yaml:"domain"`
	Address string `yaml:"address"`
	Schema  string `yaml:"schema"`
}

// BufferConfig is a top-level block for transaction buffering.
type BufferConfig struct {
	FlushInterval   time.Duration `yaml:"flush_interval"`
	Deadline        time.Duration `yaml:"deadline"`
	MaxPending      int           `yaml:"max_pending"`
	FlushOnShutdown bool          `yaml:"flush_on_shutdown"`
}

// IOConfig is a top-level block for the input and output streams.
type IOConfig struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	ExitOnEOF bool   `yaml:"exit_on_eof"`
}

// Config describes all application configuration options.
type Config struct {
	Application *ApplicationConfig `yaml:"application"`
	Metrics     *MetricsConfig     `yaml:"metrics"`
	Anonymizer  *AnonymizerConfig  `yaml:"anonymizer"`
	Buffer      *BufferConfig      `yaml:"buffer"`
	IO          *IOConfig          `yaml:"io"`
}

// DefaultConfig returns the configuration in effect when no file is supplied: standard streams,
// example.com and 0.0.0.0 as replacement values, one second sweeps and a five second deadline.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// ParseConfig parses a Config struct instance from a file specified as a path on disk. An empty
// path yields DefaultConfig.
func ParseConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: error reading config: err=%v", err)
	}

	return parseConfigData(data)
}

// parseConfigData parses, defaults and validates raw YAML configuration.
func parseConfigData(data []byte) (*Config, error) {
	var cfg *Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: error parsing config: err=%v", err)
	}

	// An empty document decodes to nil
	if cfg == nil {
		cfg = &Config{}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills in omitted blocks and zero-valued options. Explicitly empty replacement
// values cannot be told apart from omitted ones, so they also receive defaults.
func (c *Config) applyDefaults() {
	if c.Anonymizer == nil {
		c.Anonymizer = &AnonymizerConfig{}
	}

	if c.Anonymizer.Domain == "" {
		c.Anonymizer.Domain = DefaultDomain
	}

	if c.Anonymizer.Address == "" {
		c.Anonymizer.Address = DefaultAddress
	}

	if c.Anonymizer.Schema == "" {
		c.Anonymizer.Schema = DefaultSchema
	}

	if c.Buffer == nil {
		c.Buffer = &BufferConfig{}
	}

	if c.Buffer.FlushInterval == 0 {
		c.Buffer.FlushInterval = DefaultFlushInterval
	}

	if c.Buffer.Deadline == 0 {
		c.Buffer.Deadline = DefaultDeadline
	}

	if c.IO == nil {
		c.IO = &IOConfig{}
	}
}

// Validate the contents of the configuration. Returns an error if validation failed; nil
// otherwise.
func (c *Config) Validate() error {
	/* Metrics */

	// Users can omit the metrics block entirely to disable metrics reporting.
	if c.Metrics != nil && c.Metrics.Statsd != nil {
		if c.Metrics.Statsd.Address == "" {
			return fmt.Errorf("config: missing metrics statsd address")
		}

		if c.Metrics.Statsd.SampleRate < 0 || c.Metrics.Statsd.SampleRate > 1 {
			return fmt.Errorf("config: statsd sample rate must be in range [0.0, 1.0]")
		}
	}

	/* Anonymizer */

	if c.Anonymizer == nil {
		return fmt.Errorf("config: missing top-level anonymizer config key")
	}

	if c.Anonymizer.Domain == "" {
		return fmt.Errorf("config: missing anonymous domain")
	}

	if _, ok := dns.IsDomainName(c.Anonymizer.Domain); !ok {
		return fmt.Errorf("config: anonymous domain is not a valid domain name: domain=%s", c.Anonymizer.Domain)
	}

	if c.Anonymizer.Address == "" {
		return fmt.Errorf("config: missing anonymous address")
	}

	if net.ParseIP(c.Anonymizer.Address) == nil {
		return fmt.Errorf("config: anonymous address is not an IP address: address=%s", c.Anonymizer.Address)
	}

	if _, ok := protocol.LookupVariant(c.Anonymizer.Schema); !ok {
		return fmt.Errorf("config: unknown log schema: schema=%s", c.Anonymizer.Schema)
	}

	/* Buffer */

	if c.Buffer == nil {
		return fmt.Errorf("config: missing top-level buffer config key")
	}

	if c.Buffer.FlushInterval <= 0 {
		return fmt.Errorf("config: flush interval must be positive: interval=%v", c.Buffer.FlushInterval)
	}

	if c.Buffer.Deadline <= 0 {
		return fmt.Errorf("config: transaction deadline must be positive: deadline=%v", c.Buffer.Deadline)
	}

	if c.Buffer.MaxPending < 0 {
		return fmt.Errorf("config: max pending transactions must not be negative: max_pending=%d", c.Buffer.MaxPending)
	}

	return nil
}
