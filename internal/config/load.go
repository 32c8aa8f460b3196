package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ANACLIENT_"

// envMapping names overrides that do not follow the SECTION_SETTING rule.
var envMapping = map[string]string{
	"ANACLIENT_LOG_LEVEL":  "logging.level",
	"ANACLIENT_LOG_FORMAT": "logging.format",
	"ANACLIENT_ENGINE":     "engine.command",
}

// envIgnored are prefixed variables that are not settings.
var envIgnored = map[string]bool{
	"ANACLIENT_CONFIG": true,
}

// Load builds a configuration from the defaults, the file at path (skipped
// when path is empty) and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg, os.Environ()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the file at path over cfg. Settings missing from the file
// keep their current values. The format follows the file extension.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return decodeTOML(cfg, path, data)
	case ".yaml", ".yml":
		return decodeYAML(cfg, path, data)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func decodeTOML(cfg *Config, path string, data []byte) error {
	err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	if err == nil {
		return nil
	}

	perr := &ParseError{Path: path, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		perr.Line, perr.Column = derr.Position()
	}
	return perr
}

func decodeYAML(cfg *Config, path string, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

// ApplyEnv applies ANACLIENT_ overrides from environ, a list of KEY=VALUE
// entries. ANACLIENT_ENGINE_STOP_TIMEOUT sets engine.stopTimeout. Values
// are read as YAML scalars, so lists can be written as [a, b].
func ApplyEnv(cfg *Config, environ []string) error {
	sections := make(map[string]map[string]*yaml.Node)

	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) || envIgnored[name] {
			continue
		}

		path, ok := envMapping[name]
		if !ok {
			path = envToPath(name)
		}
		section, setting, ok := strings.Cut(path, ".")
		if !ok || setting == "" {
			continue
		}

		if sections[section] == nil {
			sections[section] = make(map[string]*yaml.Node)
		}
		sections[section][setting] = envValue(value)
	}

	if len(sections) == 0 {
		return nil
	}
	if err := buildNode(sections).Decode(cfg); err != nil {
		return &ParseError{Path: "environment", Message: err.Error(), Err: err}
	}
	return nil
}

// envToPath converts ANACLIENT_ENGINE_STOP_TIMEOUT to engine.stopTimeout.
func envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, EnvPrefix), "_")

	section := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return section
	}

	setting := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if part != "" {
			setting += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return section + "." + setting
}

// envValue parses value as a YAML value, falling back to a plain string.
func envValue(value string) *yaml.Node {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(value), &doc); err == nil && len(doc.Content) == 1 {
		return doc.Content[0]
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func buildNode(sections map[string]map[string]*yaml.Node) *yaml.Node {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, section := range sortedKeys(sections) {
		settings := &yaml.Node{Kind: yaml.MappingNode}
		for _, setting := range sortedKeys(sections[section]) {
			settings.Content = append(settings.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: setting},
				sections[section][setting],
			)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: section},
			settings,
		)
	}
	return root
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
