package iio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Paths holds the roots of the kernel interfaces used to drive IIO devices.
type Paths struct {
	// Sysfs is the IIO bus directory holding iio:deviceN and triggerN.
	Sysfs string
	// Devfs is the directory holding the iio:deviceN character devices.
	Devfs string
	// Configfs is the configfs mount point.
	Configfs string
	// Interrupts lists the interrupt lines, normally /proc/interrupts.
	Interrupts string
}

// DefaultPaths returns the paths of a standard Linux system.
func DefaultPaths() Paths {
	return Paths{
		Sysfs:      "/sys/bus/iio/devices",
		Devfs:      "/dev",
		Configfs:   "/config",
		Interrupts: "/proc/interrupts",
	}
}

// DeviceDir returns the sysfs directory of the device at index.
func (p Paths) DeviceDir(index int) string {
	return filepath.Join(p.Sysfs, fmt.Sprintf("iio:device%d", index))
}

// BufferNode returns the character device of the buffered device at index.
func (p Paths) BufferNode(index int) string {
	return filepath.Join(p.Devfs, fmt.Sprintf("iio:device%d", index))
}

// TriggerDir returns the sysfs directory of the trigger at index.
func (p Paths) TriggerDir(index int) string {
	return filepath.Join(p.Sysfs, fmt.Sprintf("trigger%d", index))
}

// HRTimerDir returns the configfs directory backing a hrtimer trigger.
func (p Paths) HRTimerDir(name string) string {
	return filepath.Join(p.Configfs, "iio", "triggers", "hrtimer", name)
}

// ScanTypePath returns the type attribute describing the storage of an
// enabled scan element, e.g. in_voltage0_en -> scan_elements/in_voltage0_type.
func ScanTypePath(devDir, chanEnable string) string {
	return filepath.Join(devDir, "scan_elements", strings.TrimSuffix(chanEnable, "_en")+"_type")
}
