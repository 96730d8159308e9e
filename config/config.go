package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/formatter"
	"github.com/philipp01105/conlog/handler"
	"github.com/philipp01105/conlog/handler/consolehandler"
	"github.com/philipp01105/conlog/logger"
)

// Config describes a logger factory.
type Config struct {
	// Level is the minimum level written.
	Level string `yaml:"level" mapstructure:"level"`
	// Silent creates every logger disabled.
	Silent bool `yaml:"silent" mapstructure:"silent"`
	// Sync writes on the calling goroutine. Nil means true.
	Sync *bool `yaml:"sync" mapstructure:"sync"`
	// Source adds the call site of every message as a second line.
	Source bool `yaml:"source" mapstructure:"source"`
	// Color is auto, always or never.
	Color string `yaml:"color" mapstructure:"color"`
	// Output is stdout, stderr or a file path; several targets are
	// separated by commas.
	Output string `yaml:"output" mapstructure:"output"`
	// Disable lists level names whose methods become no-ops.
	Disable []string `yaml:"disable" mapstructure:"disable"`
	// BufferSize is the queue length for loggers with Sync(false).
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`
	// BlockTimeout bounds how long warnings and errors wait for a full queue.
	BlockTimeout time.Duration `yaml:"block_timeout" mapstructure:"block_timeout"`
	// DrainTimeout bounds how long Close waits for queued lines.
	DrainTimeout time.Duration `yaml:"drain_timeout" mapstructure:"drain_timeout"`
	// CoarseClock stamps lines from a clock cached every half millisecond.
	CoarseClock bool `yaml:"coarse_clock" mapstructure:"coarse_clock"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "debug"
	}
	if c.Sync == nil {
		sync := true
		c.Sync = &sync
	}
	if c.Color == "" {
		c.Color = formatter.ColorAuto.String()
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	if c.BufferSize == 0 {
		c.BufferSize = 1000
	}
	if c.BlockTimeout == 0 {
		c.BlockTimeout = 100 * time.Millisecond
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 5 * time.Second
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := core.ParseLevel(c.Level); err != nil {
		return errors.Wrap(err, "level")
	}
	if _, err := formatter.ParseColorMode(c.Color); err != nil {
		return errors.Wrap(err, "color")
	}
	for _, name := range c.Disable {
		if _, err := core.ParseLevel(name); err != nil {
			return errors.Wrap(err, "disable")
		}
	}
	if len(outputTargets(c.Output)) == 0 {
		return errors.New("output must name at least one target")
	}
	if c.BufferSize < 0 {
		return errors.Errorf("buffer_size must not be negative (got: %d)", c.BufferSize)
	}
	if c.BlockTimeout < 0 || c.DrainTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// Options maps the configuration onto factory options. Files named in
// Output are opened for appending; the returned closer closes them and
// must be called after the factory is closed.
func (c *Config) Options() ([]logger.Option, io.Closer, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	level, _ := core.ParseLevel(c.Level)
	mode, _ := formatter.ParseColorMode(c.Color)

	stream, files, err := openOutput(c.Output)
	if err != nil {
		return nil, nil, err
	}

	sync := c.Sync == nil || *c.Sync
	opts := []logger.Option{
		logger.WithStream(stream),
		logger.WithColor(mode),
		logger.WithMinLevel(level),
		logger.WithSilence(c.Silent),
		logger.WithSync(sync),
		logger.WithSource(c.Source),
		logger.WithAsyncConfig(consolehandler.Config{
			BufferSize:   c.BufferSize,
			BlockTimeout: c.BlockTimeout,
			DrainTimeout: c.DrainTimeout,
		}),
	}
	if c.CoarseClock {
		opts = append(opts, logger.WithCoarseClock())
	}
	return opts, files, nil
}

// Apply changes the runtime switches of an existing factory: minimum
// level, silence and disabled levels.
func (c *Config) Apply(f *logger.Factory) error {
	if err := c.Validate(); err != nil {
		return err
	}
	level, _ := core.ParseLevel(c.Level)
	f.Require(level)
	f.Silence(c.Silent)
	if err := f.EnableLevels(levelNames()...); err != nil {
		return err
	}
	return f.Disable(c.Disable...)
}

// NewFactory builds a factory from the configuration. extra options are
// applied after the configured ones.
func NewFactory(c *Config, extra ...logger.Option) (*logger.Factory, io.Closer, error) {
	opts, files, err := c.Options()
	if err != nil {
		return nil, nil, err
	}
	f := logger.NewFactory(append(opts, extra...)...)
	if err := f.Disable(c.Disable...); err != nil {
		_ = f.Close()
		_ = files.Close()
		return nil, nil, err
	}
	return f, files, nil
}

func levelNames() []string {
	levels := core.AllLevels()
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = strings.ToLower(l.String())
	}
	return names
}

func outputTargets(output string) []string {
	var targets []string
	for _, t := range strings.Split(output, ",") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	return targets
}

// openOutput resolves the output targets. The second result closes the
// files that were opened; standard streams are never closed.
func openOutput(output string) (io.Writer, *handler.MultiWriter, error) {
	var writers []io.Writer
	var files []io.Writer
	for _, target := range outputTargets(output) {
		switch strings.ToLower(target) {
		case "stdout":
			writers = append(writers, consolehandler.Stdout())
		case "stderr":
			writers = append(writers, consolehandler.Stderr())
		default:
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				_ = handler.NewMultiWriter(files...).Close()
				return nil, nil, errors.Wrapf(err, "open output %q", target)
			}
			writers = append(writers, f)
			files = append(files, f)
		}
	}

	closer := handler.NewMultiWriter(files...)
	if len(writers) == 1 {
		return writers[0], closer, nil
	}
	return handler.NewMultiWriter(writers...), closer, nil
}
