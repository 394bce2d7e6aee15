package hab

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"
	"github.com/spf13/afero"

	"github.com/Evsless/hab/pkg/framework"
	"github.com/Evsless/hab/pkg/habdev"
	"github.com/Evsless/hab/pkg/iio"
	"github.com/Evsless/hab/pkg/telemetry"
)

// Boot status written to the LED.
const (
	StatusOK     = 0
	StatusFailed = 1
)

const metricsFile = "hab.prom"

// App is the flight software: it boots the devices of a plan and runs
// their events.
type App struct {
	Config    *Config
	Fs        afero.Fs
	Plan      *Plan
	Registry  *habdev.Registry
	Triggers  iio.Triggers
	Metrics   *telemetry.Metrics
	Callbacks *habdev.CallbackSet
	// Consumers receive the decoded rows of buffered devices.
	Consumers []habdev.Consumer
	MachineID string
	// Status is the boot status, valid after Init.
	Status int

	registrar *habdev.Registrar
}

// NewApp loads the flight plan and creates an App on fs.
func (c *Config) NewApp(fs afero.Fs) (*App, error) {
	plan, err := LoadPlan(fs, c.PlanPath)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:    c,
		Fs:        fs,
		Plan:      plan,
		Registry:  habdev.NewRegistry(),
		Triggers:  make(iio.Triggers),
		Metrics:   telemetry.NewMetrics(),
		Callbacks: habdev.NewCallbackSet(),
		MachineID: MachineID(),
	}
	app.registrar = &habdev.Registrar{
		Fs:          fs,
		Paths:       c.Paths(),
		StorageRoot: c.StorageRoot,
		Registry:    app.Registry,
		Triggers:    app.Triggers,
		Callbacks:   app.Callbacks,
		Metrics:     app.Metrics,
	}
	return app, nil
}

// MustNewApp creates an App and fails on error.
func (c *Config) MustNewApp(fs afero.Fs) *App {
	app, err := c.NewApp(fs)
	if err != nil {
		glog.Fatal(err)
	}
	return app
}

// Init boots the plan: triggers, global events, devices, then the LED
// status and the first metrics flush. Failing items are logged and
// skipped; their errors are returned aggregated and turn the status to
// StatusFailed.
func (a *App) Init() error {
	var errs framework.AggregatedError
	paths := a.Config.Paths()

	for _, t := range a.Plan.Triggers {
		trig, err := iio.RegisterHRTimer(a.Fs, paths, t.Index, t.Period())
		if err != nil {
			glog.Errorf("trigger %d: %v", t.Index, err)
			errs.Add(err)
			continue
		}
		a.Triggers.Add(trig)
	}

	a.bindCallbacks()
	for _, spec := range a.Plan.GlobalSpecs(a.Config.ConfigDir) {
		if _, err := a.registrar.RegisterGlobal(spec); err != nil {
			glog.Errorf("register global %d: %v", spec.ID, err)
			errs.Add(err)
		}
	}
	if _, err := a.registrar.RegisterAll(a.Plan.DeviceSpecs(a.Config.ConfigDir)); err != nil {
		errs.Add(err)
	}

	a.Status = StatusOK
	if errs.Aggregate() != nil {
		a.Status = StatusFailed
	}
	if a.Config.LEDPath != "" {
		if err := iio.WriteAttr(a.Fs, a.Config.LEDPath, strconv.Itoa(a.Status)); err != nil {
			glog.Warningf("status LED: %v", err)
		}
	}
	if a.Config.MetricsInterval > 0 {
		if err := a.flushMetrics(context.Background()); err != nil {
			glog.Warningf("metrics: %v", err)
		}
	}
	glog.Infof("boot done: %d triggers, %d global events, %d devices, status %d",
		len(a.Triggers), len(a.Registry.GlobalEvents()), len(a.Registry.Devices()), a.Status)
	return errs.Aggregate()
}

func (a *App) bindCallbacks() {
	for _, d := range a.Plan.Devices {
		if d.Callback == CallbackBuffer {
			logger := &habdev.BufferLogger{
				Fs:        a.Fs,
				Metrics:   a.Metrics,
				FrameLog:  a.Config.FrameLog,
				Consumers: a.Consumers,
			}
			a.Callbacks.SetDevice(d.Index, logger.Run)
		}
	}
	for n, g := range a.Plan.Globals {
		if g.Callback == CallbackReadout {
			readout := habdev.NewReadout(a.Fs, a.Registry, a.Config.StorageRoot, a.MachineID)
			a.Callbacks.SetGlobal(n, readout.Run)
		}
	}
}

// Loop creates the event loop running the events of every registered
// device and global event, plus the periodic metrics flush.
func (a *App) Loop() *framework.EventLoop {
	loop := framework.NewEventLoop()
	loop.OnFire = a.Metrics.Fired
	for _, dev := range a.Registry.Devices() {
		if dev.Event.Bound() {
			loop.Add(eventTimer(dev.Event))
		}
	}
	for _, g := range a.Registry.GlobalEvents() {
		if g.Event.Bound() {
			loop.Add(eventTimer(g.Event))
		}
	}
	if interval := a.Config.MetricsInterval; interval > 0 {
		loop.Add(framework.Timer{
			Name:    "metrics",
			Timeout: interval,
			Repeat:  interval,
			Fire:    a.flushMetrics,
		})
	}
	return loop
}

func eventTimer(ev *habdev.Event) framework.Timer {
	return framework.Timer{
		Name:    ev.Name,
		Timeout: ev.Timeout,
		Repeat:  ev.Repeat,
		Fire:    ev.Fire,
	}
}

// Run implements framework.Runnable.
func (a *App) Run(ctx context.Context) error {
	return a.Loop().Run(ctx)
}

// Name implements framework.Named.
func (a *App) Name() string {
	return "hab"
}

// Close removes the hrtimer triggers created by Init.
func (a *App) Close() error {
	var errs framework.AggregatedError
	for _, trig := range a.Triggers.Sorted() {
		errs.Add(iio.RemoveHRTimer(a.Fs, a.Config.Paths(), trig))
	}
	return errs.Aggregate()
}

func (a *App) flushMetrics(context.Context) error {
	return a.Metrics.WriteTextfile(a.Fs, filepath.Join(a.Config.StorageRoot, metricsFile))
}
