package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nmeabridge/internal/filter"
)

// Config is the session configuration: one input spec, a list of output
// specs, and optional filter/rate-limiter configs. It is immutable for the
// duration of a session.
type Config struct {
	Input   InputConfig    `yaml:"input"`
	Outputs []OutputConfig `yaml:"outputs"`
	Filter  FilterConfig   `yaml:"filter"`
	Rate    RateConfig     `yaml:"rate"`
}

// InputConfig is the sum-typed source spec. Exactly one of UDP or TCP
// should be set; Kind disambiguates when both might be zero-valued.
type InputConfig struct {
	Kind string `yaml:"kind"` // "udp" or "tcp"

	UDP InputUDPConfig `yaml:"udp"`
	TCP InputTCPConfig `yaml:"tcp"`
}

type InputUDPConfig struct {
	Port int    `yaml:"port"`
	Addr string `yaml:"addr"`
}

type InputTCPConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// OutputConfig is the sum-typed sink spec. Kind selects which of the four
// nested configs applies.
type OutputConfig struct {
	Kind    string `yaml:"kind"` // "serial", "vcom", "udp", "file"
	Enabled bool   `yaml:"enabled"`

	Serial OutputSerialConfig `yaml:"serial"`
	VCOM   OutputVCOMConfig   `yaml:"vcom"`
	UDP    OutputUDPConfig    `yaml:"udp"`
	File   OutputFileConfig   `yaml:"file"`
}

type OutputSerialConfig struct {
	Port     string `yaml:"port"`
	Baud     uint   `yaml:"baud"`
	DataBits uint   `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // "none", "odd", "even"
	StopBits uint   `yaml:"stop_bits"`
}

type OutputVCOMConfig struct {
	Port string `yaml:"port"`
	Auto bool   `yaml:"auto"`
}

type OutputUDPConfig struct {
	Address   string `yaml:"address"`
	Port      int    `yaml:"port"`
	Broadcast bool   `yaml:"broadcast"`
}

type OutputFileConfig struct {
	Path            string `yaml:"path"`
	AppendTimestamp bool   `yaml:"append_timestamp"`
}

type FilterConfig struct {
	Mode      string   `yaml:"mode"` // "allow-all", "allow-list", "block-list"
	AllowList []string `yaml:"allow_list"`
	BlockList []string `yaml:"block_list"`
}

type RateConfig struct {
	MaxHz   float64 `yaml:"max_hz"`
	PerType bool    `yaml:"per_type"`
}

// Load reads and validates a Config from path, applying defaults to
// optional fields.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate fills defaults and rejects inconsistent combinations
// before a session is ever started.
func DefaultAndValidate(cfg *Config) error {
	if err := validateInput(&cfg.Input); err != nil {
		return err
	}
	if err := defaultAndValidateOutputs(cfg.Outputs); err != nil {
		return err
	}
	if err := validateFilter(&cfg.Filter); err != nil {
		return err
	}
	return nil
}

func validateInput(in *InputConfig) error {
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	switch kind {
	case "udp":
		if in.UDP.Port <= 0 || in.UDP.Port > 65535 {
			return fmt.Errorf("input.udp.port is invalid: %d", in.UDP.Port)
		}
	case "tcp":
		if in.TCP.Host == "" {
			return fmt.Errorf("input.tcp.host is required")
		}
		if in.TCP.Port <= 0 || in.TCP.Port > 65535 {
			return fmt.Errorf("input.tcp.port is invalid: %d", in.TCP.Port)
		}
		if in.TCP.ReconnectDelay <= 0 {
			in.TCP.ReconnectDelay = 1 * time.Second
		}
	default:
		return fmt.Errorf("input.kind must be \"udp\" or \"tcp\", got %q", in.Kind)
	}
	in.Kind = kind
	return nil
}

func defaultAndValidateOutputs(outputs []OutputConfig) error {
	enabledCount := 0
	for i := range outputs {
		o := &outputs[i]
		if !o.Enabled {
			continue
		}
		enabledCount++
		kind := strings.ToLower(strings.TrimSpace(o.Kind))
		switch kind {
		case "serial":
			if o.Serial.Port == "" {
				return fmt.Errorf("outputs[%d].serial.port is required", i)
			}
			if o.Serial.Baud == 0 {
				o.Serial.Baud = 115200
			}
			if o.Serial.DataBits == 0 {
				o.Serial.DataBits = 8
			}
			if o.Serial.StopBits == 0 {
				o.Serial.StopBits = 1
			}
		case "vcom":
			if o.VCOM.Port == "" {
				return fmt.Errorf("outputs[%d].vcom.port is required", i)
			}
		case "udp":
			if o.UDP.Address == "" {
				return fmt.Errorf("outputs[%d].udp.address is required", i)
			}
			if o.UDP.Port <= 0 || o.UDP.Port > 65535 {
				return fmt.Errorf("outputs[%d].udp.port is invalid: %d", i, o.UDP.Port)
			}
		case "file":
			if o.File.Path == "" {
				return fmt.Errorf("outputs[%d].file.path is required", i)
			}
		default:
			return fmt.Errorf("outputs[%d].kind must be one of serial/vcom/udp/file, got %q", i, o.Kind)
		}
		o.Kind = kind
	}
	if enabledCount == 0 {
		return fmt.Errorf("at least one enabled output is required")
	}
	return nil
}

func validateFilter(f *FilterConfig) error {
	mode := strings.ToLower(strings.TrimSpace(f.Mode))
	if mode == "" {
		f.Mode = "allow-all"
		return nil
	}
	switch mode {
	case "allow-all", "allow-list", "block-list":
		f.Mode = mode
	default:
		return fmt.Errorf("filter.mode must be one of allow-all/allow-list/block-list, got %q", f.Mode)
	}
	return nil
}

// FilterMode maps the YAML-friendly string into filter.Mode.
func (f FilterConfig) FilterMode() filter.Mode {
	switch f.Mode {
	case "allow-list":
		return filter.AllowList
	case "block-list":
		return filter.BlockList
	default:
		return filter.AllowAll
	}
}
