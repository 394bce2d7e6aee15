package habdev

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/afero"

	"github.com/Evsless/hab/pkg/cfgtree"
	"github.com/Evsless/hab/pkg/framework"
	"github.com/Evsless/hab/pkg/iio"
	"github.com/Evsless/hab/pkg/telemetry"
)

const (
	timestampChan = "in_timestamp_en"
	addressAttr   = "of_node/reg"
)

// DeviceSpec selects a device and its config file.
type DeviceSpec struct {
	Index  int
	Config string
	// Name is used by camera and default devices, which have no driver
	// name attribute.
	Name string
	// Trigger is the index of the trigger a buffered device samples on.
	// A negative index selects none.
	Trigger int
	// IRQTrigger looks the trigger up in the interrupt list by driver
	// name instead.
	IRQTrigger bool
}

// Registrar registers devices described by config files. It is used
// serially during boot.
type Registrar struct {
	Fs          afero.Fs
	Paths       iio.Paths
	StorageRoot string
	Registry    *Registry
	Triggers    iio.Triggers
	Callbacks   *CallbackSet
	Metrics     *telemetry.Metrics
}

// Register loads the config of one device, collects its metadata and
// writes its attributes. The first failure stops the registration; writes
// already issued are kept. A failed device is not added to the registry,
// nor is one whose index is already registered.
func (r *Registrar) Register(spec DeviceSpec) (*Device, error) {
	dev, err := r.register(spec)
	r.Metrics.DeviceDone(err)
	if err != nil {
		return nil, err
	}
	r.Registry.addDevice(dev)
	for _, id := range dev.GlobalRefs {
		g, _ := r.Registry.GlobalEvent(id)
		g.Measured = append(g.Measured, dev.Index)
	}
	glog.Infof("device %d registered as %s (%s, %d channels, %d scan elements)",
		dev.Index, dev.Name, dev.Kind, len(dev.Channels), len(dev.ScanElements))
	return dev, nil
}

// RegisterAll registers every device in order. A failing device is logged
// and skipped; the failures are returned aggregated.
func (r *Registrar) RegisterAll(specs []DeviceSpec) ([]*Device, error) {
	var (
		devs []*Device
		errs framework.AggregatedError
	)
	for _, spec := range specs {
		dev, err := r.Register(spec)
		if err != nil {
			glog.Errorf("register device %d: %v", spec.Index, err)
			errs.Add(err)
			continue
		}
		devs = append(devs, dev)
	}
	return devs, errs.Aggregate()
}

func (r *Registrar) register(spec DeviceSpec) (*Device, error) {
	fail := func(dev *Device, stage string, err error) error {
		return &RegisterError{Index: spec.Index, Name: dev.Name, Stage: stage, Err: err}
	}
	dev := &Device{Index: spec.Index}
	if _, ok := r.Registry.Device(spec.Index); ok {
		return nil, fail(dev, StageLoad, fmt.Errorf("%w: device %d", ErrDuplicateIndex, spec.Index))
	}

	root, err := cfgtree.LoadFile(r.Fs, spec.Config)
	if err != nil {
		return nil, fail(dev, StageLoad, err)
	}
	if dev.Kind = KindOf(root.Tag); dev.Kind == KindUnknown {
		return nil, fail(dev, StageLoad, fmt.Errorf("%w: root %s", ErrUnknownKind, root.Tag))
	}
	if err := r.identify(dev, spec); err != nil {
		return nil, fail(dev, StageIdentify, err)
	}
	if err := root.Walk(0, func(n *cfgtree.Node, code cfgtree.Code) error {
		return r.collect(dev, n, code)
	}); err != nil {
		return nil, fail(dev, StageCollect, err)
	}
	if !dev.Kind.IsIIO() {
		return dev, nil
	}
	w := &attrWriter{r: r, dev: dev}
	if err := root.Walk(0, w.write); err != nil {
		return nil, fail(dev, StageWrite, err)
	}
	return dev, nil
}

// identify composes the name and paths of dev.
func (r *Registrar) identify(dev *Device, spec DeviceSpec) error {
	if !dev.Kind.IsIIO() {
		dev.Name = spec.Name
		if dev.Name == "" {
			dev.Name = fmt.Sprintf("%s-%d", dev.Kind, dev.Index)
		}
		dev.LogPath = filepath.Join(r.StorageRoot, dev.Name)
		return nil
	}

	dev.Dir = r.Paths.DeviceDir(dev.Index)
	driver, err := iio.ReadAttr(r.Fs, filepath.Join(dev.Dir, "name"))
	if err != nil {
		return err
	}
	dev.Name = driver
	addr, err := afero.ReadFile(r.Fs, filepath.Join(dev.Dir, addressAttr))
	switch {
	case err == nil && len(addr) > 0:
		dev.Name = fmt.Sprintf("%s-%02x", driver, addr[len(addr)-1])
	case err != nil && !errors.Is(err, iofs.ErrNotExist):
		return &iio.AttrError{Op: "read", Path: filepath.Join(dev.Dir, addressAttr), Err: err}
	}
	dev.LogPath = filepath.Join(r.StorageRoot, dev.Name)

	if dev.Kind != KindIIOBuffered {
		return nil
	}
	switch {
	case spec.IRQTrigger:
		trig, err := iio.FindIRQTrigger(r.Fs, r.Paths, driver)
		if err != nil {
			return err
		}
		dev.Trigger = trig
	case spec.Trigger >= 0:
		dev.Trigger, _ = r.Triggers.Get(spec.Trigger)
	}
	return nil
}

// collect is the first pass. It records paths and channel metadata and
// allocates the event, without touching device attributes.
func (r *Registrar) collect(dev *Device, n *cfgtree.Node, code cfgtree.Code) error {
	glog.V(4).Infof("collect %s: %s %s", dev.Name, code, n.Tag)
	switch code.Struct() {
	case cfgtree.RoleBuffer:
		dev.BufferPaths = append(dev.BufferPaths, r.Paths.BufferNode(dev.Index))
	case cfgtree.RoleChanName:
		dev.Channels = append(dev.Channels, n.Value)
	case cfgtree.RoleBufferChanName:
		typ, err := iio.ReadAttr(r.Fs, iio.ScanTypePath(dev.Dir, n.Value))
		if err != nil {
			return err
		}
		st, err := iio.ParseScanType(typ)
		if err != nil {
			return err
		}
		dev.ScanElements = append(dev.ScanElements, n.Value)
		dev.Format.Widths = append(dev.Format.Widths, st.StorageBits)
		if n.Value == timestampChan {
			dev.Format.Timestamp = true
		}
	case cfgtree.RoleEvent:
		dev.Event = &Event{Name: dev.Name}
		if cb := r.Callbacks.device(dev.Index); cb != nil {
			dev.Event.fire = func(ctx context.Context) error { return cb(ctx, dev) }
		}
	case cfgtree.RoleEventTimeout:
		d, err := millis(n.Value)
		if err != nil {
			return err
		}
		dev.Event.Timeout = d
	case cfgtree.RoleEventRepeat:
		d, err := millis(n.Value)
		if err != nil {
			return err
		}
		dev.Event.Repeat = d
	case cfgtree.RoleGlobalRef:
		id, err := strconv.Atoi(n.Value)
		if err != nil {
			return fmt.Errorf("%w: global_ev_ref %q", ErrBadValue, n.Value)
		}
		if _, ok := r.Registry.GlobalEvent(id); !ok {
			return fmt.Errorf("%w: %d", ErrUnknownGlobal, id)
		}
		dev.GlobalRefs = append(dev.GlobalRefs, id)
	case cfgtree.RoleCamStill:
		dev.Still = n.Value
	case cfgtree.RoleCamVideo:
		dev.Video = n.Value
	}
	return nil
}

// attrWriter is the second pass. A channel name sets the pending
// attribute path and the value following it writes there.
type attrWriter struct {
	r       *Registrar
	dev     *Device
	pending string
}

func (w *attrWriter) write(n *cfgtree.Node, code cfgtree.Code) error {
	dir := w.dev.Dir
	switch code.Struct() {
	case cfgtree.RoleBuffer:
		if w.dev.Trigger == nil {
			return ErrNoTrigger
		}
		return w.set(filepath.Join(dir, "trigger", "current_trigger"), w.dev.Trigger.Name)
	case cfgtree.RoleBufferChanName:
		w.pending = filepath.Join(dir, "scan_elements", n.Value)
	case cfgtree.RoleChanName:
		w.pending = filepath.Join(dir, n.Value)
	case cfgtree.RoleBufferChanValue, cfgtree.RoleChanValue:
		if w.pending == "" {
			return fmt.Errorf("%w: %q", ErrNoPendingAttr, n.Value)
		}
		path := w.pending
		w.pending = ""
		return w.set(path, n.Value)
	case cfgtree.RoleBufferLength:
		return w.set(filepath.Join(dir, "buffer", "length"), n.Value)
	case cfgtree.RoleBufferEnable:
		return w.set(filepath.Join(dir, "buffer", "enable"), n.Value)
	}
	return nil
}

func (w *attrWriter) set(path, value string) error {
	err := iio.WriteAttr(w.r.Fs, path, value)
	w.r.Metrics.AttrOp(err)
	glog.V(2).Infof("%s: %s <- %q: %v", w.dev.Name, path, value, err)
	return err
}

func millis(s string) (time.Duration, error) {
	ms, err := strconv.Atoi(s)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("%w: %q is not a millisecond count", ErrBadValue, s)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
