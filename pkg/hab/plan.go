package hab

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Evsless/hab/pkg/habdev"
)

// Callbacks a plan entry can bind to its event.
const (
	CallbackNone    = ""
	CallbackBuffer  = "buffer"
	CallbackReadout = "readout"
)

// Plan is the flight plan: the triggers to create, the global events and
// the devices to register, in boot order.
type Plan struct {
	Triggers []TriggerPlan `yaml:"triggers"`
	// Globals are identified by their position in the list, which is the
	// number devices refer to with global_ev_ref.
	Globals []GlobalPlan `yaml:"globals"`
	Devices []DevicePlan `yaml:"devices"`
}

// TriggerPlan describes a hrtimer trigger.
type TriggerPlan struct {
	Index    int `yaml:"index"`
	PeriodMS int `yaml:"period_ms"`
}

// Period returns the trigger period.
func (t TriggerPlan) Period() time.Duration {
	return time.Duration(t.PeriodMS) * time.Millisecond
}

// GlobalPlan describes a global event.
type GlobalPlan struct {
	Name     string `yaml:"name"`
	Config   string `yaml:"config"`
	Callback string `yaml:"callback"`
}

// DevicePlan describes a device.
type DevicePlan struct {
	Index  int    `yaml:"index"`
	Config string `yaml:"config"`
	Name   string `yaml:"name"`
	// Trigger is the index of a trigger in the plan. Unset means none.
	Trigger    *int   `yaml:"trigger"`
	IRQTrigger bool   `yaml:"irq_trigger"`
	Callback   string `yaml:"callback"`
}

// LoadPlan reads and validates a flight plan.
func LoadPlan(fs afero.Fs, path string) (*Plan, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var plan Plan
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	plan.applyDefaults()
	if err := plan.validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return &plan, nil
}

func (p *Plan) applyDefaults() {
	for n := range p.Globals {
		if p.Globals[n].Name == "" {
			p.Globals[n].Name = fmt.Sprintf("global-%d", n)
		}
	}
}

func (p *Plan) validate() error {
	triggers := make(map[int]bool)
	for _, t := range p.Triggers {
		if t.Index < 0 {
			return fmt.Errorf("trigger index %d is negative", t.Index)
		}
		if triggers[t.Index] {
			return fmt.Errorf("trigger %d is defined twice", t.Index)
		}
		if t.PeriodMS <= 0 {
			return fmt.Errorf("trigger %d: period_ms is required", t.Index)
		}
		triggers[t.Index] = true
	}
	for n, g := range p.Globals {
		if g.Config == "" {
			return fmt.Errorf("global %d (%s): config is required", n, g.Name)
		}
		if g.Callback != CallbackNone && g.Callback != CallbackReadout {
			return fmt.Errorf("global %d (%s): unknown callback %q", n, g.Name, g.Callback)
		}
	}
	devices := make(map[int]bool)
	for _, d := range p.Devices {
		if d.Index < 0 {
			return fmt.Errorf("device index %d is negative", d.Index)
		}
		if devices[d.Index] {
			return fmt.Errorf("device %d is defined twice", d.Index)
		}
		devices[d.Index] = true
		if d.Config == "" {
			return fmt.Errorf("device %d: config is required", d.Index)
		}
		if d.Callback != CallbackNone && d.Callback != CallbackBuffer {
			return fmt.Errorf("device %d: unknown callback %q", d.Index, d.Callback)
		}
		if d.Trigger != nil {
			if d.IRQTrigger {
				return fmt.Errorf("device %d: trigger and irq_trigger are exclusive", d.Index)
			}
			if !triggers[*d.Trigger] {
				return fmt.Errorf("device %d: trigger %d is not defined", d.Index, *d.Trigger)
			}
		}
	}
	return nil
}

// GlobalSpecs returns the registration specs of the global events.
// Relative config paths are resolved against configDir.
func (p *Plan) GlobalSpecs(configDir string) []habdev.GlobalSpec {
	specs := make([]habdev.GlobalSpec, len(p.Globals))
	for n, g := range p.Globals {
		specs[n] = habdev.GlobalSpec{
			ID:     n,
			Name:   g.Name,
			Config: configPath(configDir, g.Config),
		}
	}
	return specs
}

// DeviceSpecs returns the registration specs of the devices. Relative
// config paths are resolved against configDir.
func (p *Plan) DeviceSpecs(configDir string) []habdev.DeviceSpec {
	specs := make([]habdev.DeviceSpec, len(p.Devices))
	for n, d := range p.Devices {
		spec := habdev.DeviceSpec{
			Index:      d.Index,
			Config:     configPath(configDir, d.Config),
			Name:       d.Name,
			Trigger:    -1,
			IRQTrigger: d.IRQTrigger,
		}
		if d.Trigger != nil {
			spec.Trigger = *d.Trigger
		}
		specs[n] = spec
	}
	return specs
}

func configPath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
