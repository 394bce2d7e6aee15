package hab

import (
	"flag"
	"os"
	"time"

	"github.com/Evsless/hab/pkg/iio"
)

// Config holds the options of the flight daemon.
type Config struct {
	// PlanPath is the YAML flight plan listing triggers, global events
	// and devices.
	PlanPath string
	// ConfigDir is the base of relative device config paths in the plan.
	ConfigDir string

	Sysfs      string
	Devfs      string
	Configfs   string
	Interrupts string

	// StorageRoot receives the device logs, the readout log and the
	// metrics textfile.
	StorageRoot string
	// LEDPath is the status LED device. The boot status is written there
	// as decimal text. Empty disables it.
	LEDPath string

	MetricsInterval time.Duration
	FrameLog        bool
}

var defaultConfig = Config{
	PlanPath:        "/etc/hab/plan.yaml",
	ConfigDir:       "/etc/hab/devices",
	Sysfs:           iio.DefaultPaths().Sysfs,
	Devfs:           iio.DefaultPaths().Devfs,
	Configfs:        iio.DefaultPaths().Configfs,
	Interrupts:      iio.DefaultPaths().Interrupts,
	StorageRoot:     "/media/hab_flight_data",
	LEDPath:         "/dev/hab_led",
	MetricsInterval: 10 * time.Second,
}

func init() {
	if val := os.Getenv("HAB_STORAGE_ROOT"); val != "" {
		defaultConfig.StorageRoot = val
	}
	if val := os.Getenv("HAB_PLAN"); val != "" {
		defaultConfig.PlanPath = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.PlanPath, "plan", defaultConfig.PlanPath, "Flight plan file")
	flag.StringVar(&defaultConfig.ConfigDir, "config-dir", defaultConfig.ConfigDir, "Base directory of device configs")
	flag.StringVar(&defaultConfig.Sysfs, "sysfs", defaultConfig.Sysfs, "IIO sysfs bus directory")
	flag.StringVar(&defaultConfig.Devfs, "devfs", defaultConfig.Devfs, "Directory of IIO character devices")
	flag.StringVar(&defaultConfig.Configfs, "configfs", defaultConfig.Configfs, "Configfs mount point")
	flag.StringVar(&defaultConfig.Interrupts, "interrupts", defaultConfig.Interrupts, "Interrupt list")
	flag.StringVar(&defaultConfig.StorageRoot, "storage", defaultConfig.StorageRoot, "Flight data directory")
	flag.StringVar(&defaultConfig.LEDPath, "led", defaultConfig.LEDPath, "Status LED device, empty to disable")
	flag.DurationVar(&defaultConfig.MetricsInterval, "metrics-interval", defaultConfig.MetricsInterval, "Metrics textfile flush interval, 0 to disable")
	flag.BoolVar(&defaultConfig.FrameLog, "frames", defaultConfig.FrameLog, "Also log decoded frames")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Paths returns the kernel interface roots.
func (c *Config) Paths() iio.Paths {
	return iio.Paths{
		Sysfs:      c.Sysfs,
		Devfs:      c.Devfs,
		Configfs:   c.Configfs,
		Interrupts: c.Interrupts,
	}
}
