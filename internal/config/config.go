// Package config loads the run configuration of the contractkit command:
// an optional YAML file, completed with defaults and overridden by
// CONTRACTKIT_* environment variables (optionally read from .env files).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/i18n"
	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONTRACTKIT_"

// Config is the run configuration.
type Config struct {
	// Generative expands optional keys exhaustively and produces negatives.
	Generative   bool `yaml:"generative"`
	PositiveOnly bool `yaml:"positiveOnly"`
	// MaxCombinations caps optional-key combinations per object.
	MaxCombinations int `yaml:"maxCombinations"`
	// DataTypeNegatives adds wrong-kind values to negative candidates.
	// Unset means true.
	DataTypeNegatives *bool `yaml:"dataTypeNegatives"`
	IgnoreUnknownKeys bool  `yaml:"ignoreUnknownKeys"`
	// UseExamples lets declared schema examples stand in for synthesized
	// values. Unset means true.
	UseExamples *bool `yaml:"useExamples"`
	// Dictionary is the path of a JSON file of lookup path to example value.
	Dictionary string `yaml:"dictionary"`
	// Language selects message language, "en" or "ja".
	Language string `yaml:"language"`
	// OpenObjects lets object schemas without additionalProperties accept
	// undeclared keys.
	OpenObjects   bool `yaml:"openObjects"`
	StrictFormats bool `yaml:"strictFormats"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	negatives, examples := true, true
	return Config{
		MaxCombinations:   pattern.DefaultMaxCombinations,
		DataTypeNegatives: &negatives,
		UseExamples:       &examples,
		Language:          "en",
	}
}

// Load reads the YAML file at path (skipped when path is empty), fills
// unset fields from Default and applies environment overrides. envFiles are
// read with godotenv; variables already set in the process environment win.
func Load(path string, envFiles ...string) (Config, error) {
	var c Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty file decodes as io.EOF and leaves every field unset.
		if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return c, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := mergo.Merge(&c, Default()); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	env, err := environment(envFiles)
	if err != nil {
		return c, err
	}
	if err := c.override(env); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func environment(files []string) (map[string]string, error) {
	env := map[string]string{}
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", f, err)
		}
		for k, v := range vars {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

func (c *Config) override(env map[string]string) error {
	bools := map[string]*bool{
		"GENERATIVE":          &c.Generative,
		"POSITIVE_ONLY":       &c.PositiveOnly,
		"IGNORE_UNKNOWN_KEYS": &c.IgnoreUnknownKeys,
		"OPEN_OBJECTS":        &c.OpenObjects,
		"STRICT_FORMATS":      &c.StrictFormats,
	}
	for name, dst := range bools {
		raw, ok := env[EnvPrefix+name]
		if !ok {
			continue
		}
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
	}
	optional := map[string]**bool{
		"DATA_TYPE_NEGATIVES": &c.DataTypeNegatives,
		"USE_EXAMPLES":        &c.UseExamples,
	}
	for name, dst := range optional {
		raw, ok := env[EnvPrefix+name]
		if !ok {
			continue
		}
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
		}
		*dst = &b
	}
	if raw, ok := env[EnvPrefix+"MAX_COMBINATIONS"]; ok {
		n, err := cast.ToIntE(raw)
		if err != nil {
			return fmt.Errorf("config: %sMAX_COMBINATIONS: %w", EnvPrefix, err)
		}
		c.MaxCombinations = n
	}
	if raw, ok := env[EnvPrefix+"DICTIONARY"]; ok {
		c.Dictionary = raw
	}
	if raw, ok := env[EnvPrefix+"LANGUAGE"]; ok {
		c.Language = raw
	}
	return nil
}

// Validate rejects settings no run can use.
func (c Config) Validate() error {
	var errs []error
	if c.MaxCombinations < 1 {
		errs = append(errs, fmt.Errorf("maxCombinations must be at least 1, got %d", c.MaxCombinations))
	}
	if c.Language != "en" && c.Language != "ja" {
		errs = append(errs, fmt.Errorf("language must be en or ja, got %q", c.Language))
	}
	if c.PositiveOnly && !c.Generative {
		errs = append(errs, errors.New("positiveOnly needs generative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LoadOptions returns the document loading options.
func (c Config) LoadOptions() openapi.Options {
	o := openapi.Options{StrictFormats: c.StrictFormats}
	if c.OpenObjects {
		o.AdditionalProperties = openapi.OpenByDefault
	}
	return o
}

// Translator returns the message catalogue for Language.
func (c Config) Translator() i18n.Translator { return i18n.New(c.Language) }

// Apply configures r. The dictionary file, when set, is read here.
func (c Config) Apply(r *pattern.Resolver) (*pattern.Resolver, error) {
	r = r.WithMaxCombinations(c.MaxCombinations).
		WithMessages(pattern.Translated{Translator: c.Translator()})
	if c.Generative {
		r = r.WithGeneration(pattern.Generative{PositiveOnly: c.PositiveOnly})
	}
	if c.DataTypeNegatives != nil {
		r = r.WithDataTypeNegatives(*c.DataTypeNegatives)
	}
	if c.UseExamples != nil && !*c.UseExamples {
		r = r.WithExamples(pattern.DoNotUseDefaultExample{})
	}
	if c.IgnoreUnknownKeys {
		r = r.WithUnknownKeys(contractkit.UnknownIgnore)
	}
	if c.Dictionary != "" {
		d, err := LoadDictionary(c.Dictionary)
		if err != nil {
			return nil, err
		}
		r = r.WithDictionary(d)
	}
	return r, nil
}

// LoadDictionary reads a JSON dictionary file.
func LoadDictionary(path string) (pattern.Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: dictionary: %w", err)
	}
	v, err := value.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("config: dictionary %s: %w", path, err)
	}
	d, err := pattern.DictionaryFromValue(v)
	if err != nil {
		return nil, fmt.Errorf("config: dictionary %s: %w", path, err)
	}
	return d, nil
}
