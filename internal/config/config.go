// Package config loads the configuration of the hostrt command, from TOML or
// YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/logiface"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned by Load for unsupported file extensions.
var ErrUnknownFormat = errors.New(`config: unknown file format`)

type (
	// Config is the root of the configuration file.
	Config struct {
		Log     Log     `toml:"log" yaml:"log"`
		Window  Window  `toml:"window" yaml:"window"`
		Runtime Runtime `toml:"runtime" yaml:"runtime"`
		Demo    Demo    `toml:"demo" yaml:"demo"`
	}

	Log struct {
		// Level is a syslog keyword (e.g. "info", "debug", "trace"), or
		// "disabled".
		Level string `toml:"level" yaml:"level"`
		// Output is "stderr", "stdout", or a file path.
		Output string `toml:"output" yaml:"output"`
	}

	Window struct {
		Title  string `toml:"title" yaml:"title"`
		Width  int64  `toml:"width" yaml:"width"`
		Height int64  `toml:"height" yaml:"height"`
	}

	Runtime struct {
		TableMinCapacity int64 `toml:"table_min_capacity" yaml:"table_min_capacity"`
		SingleTaskSlot   bool  `toml:"single_task_slot" yaml:"single_task_slot"`
		Timers           bool  `toml:"timers" yaml:"timers"`
		FramePacing      bool  `toml:"frame_pacing" yaml:"frame_pacing"`
		MaxBatch         int64 `toml:"max_batch" yaml:"max_batch"`
	}

	// Demo configures the demo application.
	Demo struct {
		// Ticks is the number of ticks before the demo exits, 0 for
		// unlimited.
		Ticks    int64    `toml:"ticks" yaml:"ticks"`
		Interval Duration `toml:"interval" yaml:"interval"`
		// FrameRate is the target frames per second, when redrawing.
		FrameRate int64 `toml:"frame_rate" yaml:"frame_rate"`
		// Workers is the number of background tasks started per tick.
		Workers int64 `toml:"workers" yaml:"workers"`
	}

	// Duration is a time.Duration, in the time.ParseDuration format.
	Duration time.Duration
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:  `info`,
			Output: `stderr`,
		},
		Window: Window{
			Title:  `hostrt`,
			Width:  80,
			Height: 24,
		},
		Runtime: Runtime{
			TableMinCapacity: hostrt.DefaultTableMinCapacity,
			Timers:           true,
			FramePacing:      true,
			MaxBatch:         64,
		},
		Demo: Demo{
			Ticks:     10,
			Interval:  Duration(250 * time.Millisecond),
			FrameRate: 30,
			Workers:   1,
		},
	}
}

// Load reads the file at path over the defaults, using the format indicated
// by the extension (.toml, .yaml or .yml), then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(`config: %w`, err)
	}
	c := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case `.toml`:
		err = c.decodeTOML(data)
	case `.yaml`, `.yml`:
		err = c.decodeYAML(data)
	default:
		return nil, fmt.Errorf(`%w: %q`, ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf(`config: %s: %w`, path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf(`config: %s: %w`, path, err)
	}
	return c, nil
}

func (c *Config) decodeTOML(data []byte) error {
	meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(c)
	if err != nil {
		return err
	}
	if keys := meta.Undecoded(); len(keys) != 0 {
		return fmt.Errorf(`unknown key %q`, keys[0].String())
	}
	return nil
}

func (c *Config) decodeYAML(data []byte) error {
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)
	// an empty document is valid
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Output == `` {
		return errors.New(`log.output must not be empty`)
	}
	if _, err := c.WindowAttributes(); err != nil {
		return err
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf(`window size must be positive: %dx%d`, c.Window.Width, c.Window.Height)
	}
	if _, err := safecast.Conv[int](c.Runtime.TableMinCapacity); err != nil || c.Runtime.TableMinCapacity <= 0 {
		return fmt.Errorf(`runtime.table_min_capacity out of range: %d`, c.Runtime.TableMinCapacity)
	}
	if _, err := c.MaxBatch(); err != nil {
		return err
	}
	if c.Demo.Ticks < 0 {
		return fmt.Errorf(`demo.ticks must not be negative: %d`, c.Demo.Ticks)
	}
	if c.Demo.Interval <= 0 {
		return fmt.Errorf(`demo.interval must be positive: %s`, c.Demo.Interval)
	}
	if _, err := c.FrameInterval(); err != nil {
		return err
	}
	if c.Demo.Workers < 0 || c.Demo.Workers > 1024 {
		return fmt.Errorf(`demo.workers out of range: %d`, c.Demo.Workers)
	}
	if c.Runtime.SingleTaskSlot && c.Demo.Workers > 1 {
		return fmt.Errorf(`runtime.single_task_slot holds one task, demo.workers must be at most 1: %d`, c.Demo.Workers)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() logiface.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// WindowAttributes converts the window section.
func (c *Config) WindowAttributes() (hostrt.WindowAttributes, error) {
	width, err := safecast.Conv[int](c.Window.Width)
	if err != nil {
		return hostrt.WindowAttributes{}, fmt.Errorf(`window.width: %w`, err)
	}
	height, err := safecast.Conv[int](c.Window.Height)
	if err != nil {
		return hostrt.WindowAttributes{}, fmt.Errorf(`window.height: %w`, err)
	}
	return hostrt.WindowAttributes{
		Title:  c.Window.Title,
		Width:  width,
		Height: height,
	}, nil
}

// MaxBatch converts runtime.max_batch.
func (c *Config) MaxBatch() (int, error) {
	n, err := safecast.Conv[int](c.Runtime.MaxBatch)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf(`runtime.max_batch out of range: %d`, c.Runtime.MaxBatch)
	}
	return n, nil
}

// FrameInterval returns the time between frames, at demo.frame_rate.
func (c *Config) FrameInterval() (time.Duration, error) {
	if c.Demo.FrameRate <= 0 || c.Demo.FrameRate > 1000 {
		return 0, fmt.Errorf(`demo.frame_rate out of range: %d`, c.Demo.FrameRate)
	}
	return time.Second / time.Duration(c.Demo.FrameRate), nil
}

// Options returns the router options, for the runtime section. The logger
// is not included.
func (c *Config) Options() []hostrt.Option {
	capacity, _ := safecast.Conv[int](c.Runtime.TableMinCapacity)
	return []hostrt.Option{
		hostrt.WithTableMinCapacity(capacity),
		hostrt.WithSingleTaskSlot(c.Runtime.SingleTaskSlot),
		hostrt.WithTimers(c.Runtime.Timers),
		hostrt.WithFramePacing(c.Runtime.FramePacing),
	}
}

// ParseLevel parses a log level keyword. Both the short syslog keywords
// used by logiface.Level.String, and their long forms, are accepted.
func ParseLevel(s string) (logiface.Level, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case `error`:
		return logiface.LevelError, nil
	case `warn`:
		return logiface.LevelWarning, nil
	case `emergency`:
		return logiface.LevelEmergency, nil
	case `critical`:
		return logiface.LevelCritical, nil
	case `information`, `informational`:
		return logiface.LevelInformational, nil
	default:
		for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
			if level.String() == v {
				return level, nil
			}
		}
		return 0, fmt.Errorf(`unknown log level %q`, s)
	}
}

// String implements fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler, used for TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}
