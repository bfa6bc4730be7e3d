// Package config loads process settings from a YAML file and NODETREE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	jlconfig "github.com/JeremyLoy/config"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Log       LogConfig       `json:"log" yaml:"log"`
	Loop      LoopConfig      `json:"loop" yaml:"loop"`
	Scene     SceneConfig     `json:"scene" yaml:"scene"`
	Resources ResourcesConfig `json:"resources" yaml:"resources"`
	Inspector InspectorConfig `json:"inspector" yaml:"inspector"`
}

type LogConfig struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

type LoopConfig struct {
	// FrameRate is the variable-rate pass frequency in Hz.
	FrameRate float64 `json:"frame_rate" yaml:"frame_rate"`
	// FixedRate is the fixed-rate pass frequency in Hz.
	FixedRate float64 `json:"fixed_rate" yaml:"fixed_rate"`
}

// FixedStep converts FixedRate to a period.
func (c LoopConfig) FixedStep() time.Duration {
	return time.Duration(float64(time.Second) / c.FixedRate)
}

type SceneConfig struct {
	Path       string `json:"path" yaml:"path"`
	SaveOnExit bool   `json:"save_on_exit" yaml:"save_on_exit"`
}

type ResourcesConfig struct {
	Root string `json:"root" yaml:"root"`
}

type InspectorConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
	// Token, when set, guards every route except /healthz.
	Token string `json:"token" yaml:"token"`
}

func Default() Config {
	return Config{
		Log:       LogConfig{Level: "info", Encoding: "console"},
		Loop:      LoopConfig{FrameRate: 60, FixedRate: 50},
		Resources: ResourcesConfig{Root: "."},
		Inspector: InspectorConfig{Enabled: false, Addr: "127.0.0.1:7070"},
	}
}

// Load reads path (if not empty) over the defaults, applies the environment
// and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, pkgerrors.Wrap(err, "open config")
		}
		defer func() { _ = f.Close() }()
		if err = Decode(f, &cfg); err != nil {
			return Config{}, pkgerrors.Wrapf(err, "parse %s", path)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads YAML over cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// env lists the supported overrides. Booleans are strings so an unset
// variable can be told apart from false.
type env struct {
	LogLevel         string  `config:"NODETREE_LOG_LEVEL"`
	LogEncoding      string  `config:"NODETREE_LOG_ENCODING"`
	FrameRate        float64 `config:"NODETREE_FRAME_RATE"`
	FixedRate        float64 `config:"NODETREE_FIXED_RATE"`
	ScenePath        string  `config:"NODETREE_SCENE_PATH"`
	SaveOnExit       string  `config:"NODETREE_SCENE_SAVE_ON_EXIT"`
	ResourceRoot     string  `config:"NODETREE_RESOURCES_ROOT"`
	InspectorEnabled string  `config:"NODETREE_INSPECTOR_ENABLED"`
	InspectorAddr    string  `config:"NODETREE_INSPECTOR_ADDR"`
	InspectorToken   string  `config:"NODETREE_INSPECTOR_TOKEN"`
}

// ApplyEnv overrides cfg with any NODETREE_* variables that are set.
func ApplyEnv(cfg *Config) error {
	var e env
	if err := jlconfig.FromEnv().To(&e); err != nil {
		return pkgerrors.Wrap(err, "read environment")
	}

	setString(&cfg.Log.Level, e.LogLevel)
	setString(&cfg.Log.Encoding, e.LogEncoding)
	setString(&cfg.Scene.Path, e.ScenePath)
	setString(&cfg.Resources.Root, e.ResourceRoot)
	setString(&cfg.Inspector.Addr, e.InspectorAddr)
	setString(&cfg.Inspector.Token, e.InspectorToken)
	if e.FrameRate != 0 {
		cfg.Loop.FrameRate = e.FrameRate
	}
	if e.FixedRate != 0 {
		cfg.Loop.FixedRate = e.FixedRate
	}
	if err := setBool(&cfg.Scene.SaveOnExit, "NODETREE_SCENE_SAVE_ON_EXIT", e.SaveOnExit); err != nil {
		return err
	}
	return setBool(&cfg.Inspector.Enabled, "NODETREE_INSPECTOR_ENABLED", e.InspectorEnabled)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key, v string) error {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, v)
	}
	*dst = b
	return nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Log.Encoding {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("%w: log.encoding %q", ErrInvalid, c.Log.Encoding))
	}
	if c.Loop.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: loop.frame_rate must be positive", ErrInvalid))
	}
	if c.Loop.FixedRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: loop.fixed_rate must be positive", ErrInvalid))
	}
	if c.Scene.SaveOnExit && c.Scene.Path == "" {
		errs = append(errs, fmt.Errorf("%w: scene.save_on_exit needs scene.path", ErrInvalid))
	}
	if c.Inspector.Enabled && c.Inspector.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: inspector.addr is empty", ErrInvalid))
	}
	return errors.Join(errs...)
}
