package config

import (
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages run configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Run parameters
	v.SetDefault("run.workers", runtime.NumCPU())
	v.SetDefault("run.nsq_mode", "normalized")
	v.SetDefault("run.reuse_curves", false)

	// Output parameters
	v.SetDefault("output.curve_dir", "")
	v.SetDefault("output.report_dir", "reports")
	v.SetDefault("output.log_file", "plot.log")
	v.SetDefault("output.workbook", true)

	// Plot parameters
	v.SetDefault("plot.zoom", 0.0)
	v.SetDefault("plot.log_x", false)
	v.SetDefault("plot.x_axis", "library")
	v.SetDefault("plot.x_label", "% of ranked database")
	v.SetDefault("plot.roc_x_label", "% of true negatives found")
	v.SetDefault("plot.y_label", "% of known ligands found")

	// Logging parameters
	v.SetDefault("logging.level", "info")

	// Report server
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetEnvPrefix("VSROC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) Workers() int {
	if n := c.v.GetInt("run.workers"); n > 0 {
		return n
	}
	return 1
}
func (c *Config) NsqMode() string   { return c.v.GetString("run.nsq_mode") }
func (c *Config) ReuseCurves() bool { return c.v.GetBool("run.reuse_curves") }

func (c *Config) CurveDir() string  { return c.v.GetString("output.curve_dir") }
func (c *Config) ReportDir() string { return c.v.GetString("output.report_dir") }
func (c *Config) LogFile() string   { return c.v.GetString("output.log_file") }
func (c *Config) Workbook() bool    { return c.v.GetBool("output.workbook") }

func (c *Config) Zoom() float64     { return c.v.GetFloat64("plot.zoom") }
func (c *Config) LogX() bool        { return c.v.GetBool("plot.log_x") }
func (c *Config) XAxis() string     { return c.v.GetString("plot.x_axis") }
func (c *Config) XLabel() string    { return c.v.GetString("plot.x_label") }
func (c *Config) ROCXLabel() string { return c.v.GetString("plot.roc_x_label") }
func (c *Config) YLabel() string    { return c.v.GetString("plot.y_label") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

func (c *Config) ServerAddress() string             { return c.v.GetString("server.address") }
func (c *Config) ServerReadTimeout() time.Duration  { return c.v.GetDuration("server.read_timeout") }
func (c *Config) ServerWriteTimeout() time.Duration { return c.v.GetDuration("server.write_timeout") }
func (c *Config) AllowedOrigins() []string          { return c.v.GetStringSlice("server.allowed_origins") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	return c.CreateLoggerTo(os.Stderr)
}

// CreateLoggerTo creates a console logger writing to out.
func (c *Config) CreateLoggerTo(out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "vsroc").Logger()
}
