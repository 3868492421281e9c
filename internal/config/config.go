package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults reproduce the original deployment script: the issuer app is served
// by flask with TLS enabled, bound to the backend host.
const (
	DefaultServerCommand = "flask"
	DefaultApp           = "app"
	DefaultCertFile      = "cert.pem"
	DefaultKeyFile       = "key.pem"
	DefaultHost          = "192.168.134.214"
	DefaultVenvDir       = ".venv"
)

// Config holds everything the launcher needs to bring up the issuer server.
type Config struct {
	// ServerCommand is the executable that serves the application.
	ServerCommand string `yaml:"server_command"`

	// App is the application entry-point identifier passed to the server.
	App string `yaml:"app"`

	// CertFile is the TLS certificate presented by the issuer server.
	CertFile string `yaml:"cert"`

	// KeyFile is the private key paired with CertFile.
	KeyFile string `yaml:"key"`

	// Host is the bind address handed to the server. It is passed through
	// verbatim; the launcher never substitutes a local interface.
	Host string `yaml:"host"`

	// VenvDir is the virtual environment the server command resolves from.
	// Empty disables activation and launches in the caller's environment.
	VenvDir string `yaml:"venv"`

	// CABundle is the certificate bundle exported via REQUESTS_CA_BUNDLE for
	// the server's outbound HTTPS calls. Defaults to CertFile when empty.
	CABundle string `yaml:"ca_bundle"`
}

// Default returns a Config matching the original launch script.
func Default() *Config {
	return &Config{
		ServerCommand: DefaultServerCommand,
		App:           DefaultApp,
		CertFile:      DefaultCertFile,
		KeyFile:       DefaultKeyFile,
		Host:          DefaultHost,
		VenvDir:       DefaultVenvDir,
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are rejected
// so a typo in a deployment file fails loudly instead of silently launching
// with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		// an empty file means defaults
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// ResolvedCABundle returns the bundle path REQUESTS_CA_BUNDLE should point at.
func (c *Config) ResolvedCABundle() string {
	if c.CABundle != "" {
		return c.CABundle
	}
	return c.CertFile
}

// Validate reports every missing mandatory field at once rather than failing
// one field at a time.
func (c *Config) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"server_command", c.ServerCommand},
		{"app", c.App},
		{"cert", c.CertFile},
		{"key", c.KeyFile},
		{"host", c.Host},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errors.New("missing mandatory config fields: " + strings.Join(missing, ", "))
	}
	return nil
}
