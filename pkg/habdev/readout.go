package habdev

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/afero"

	"github.com/Evsless/hab/pkg/framework"
	"github.com/Evsless/hab/pkg/iio"
)

const readoutHeader = "DATA FORMAT: VALUES FROM LEFT TO RIGHT.\nTIMESTAMP ALWAYS IS FIRST\n"

// Readout is the callback of the main global event. Every run reads the
// channel attributes of all measured devices and appends one line to the
// readout log, starting with the unix timestamp.
type Readout struct {
	Fs        afero.Fs
	Registry  *Registry
	Path      string
	MachineID string
	Now       func() time.Time

	headerDone bool
}

// NewReadout creates a Readout logging to <storageRoot>/task_main/dev_readout.
func NewReadout(fs afero.Fs, reg *Registry, storageRoot, machineID string) *Readout {
	return &Readout{
		Fs:        fs,
		Registry:  reg,
		Path:      filepath.Join(storageRoot, "task_main", "dev_readout"),
		MachineID: machineID,
	}
}

// Run matches GlobalCallback. Channels that cannot be read are logged as
// "-" and reported in the returned error.
func (r *Readout) Run(ctx context.Context, ev *GlobalEvent) error {
	devs := r.measured(ev)
	if !r.headerDone {
		if err := r.writeHeader(devs); err != nil {
			return err
		}
		r.headerDone = true
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	var (
		line strings.Builder
		errs framework.AggregatedError
	)
	fmt.Fprintf(&line, "%d ", now().Unix())
	for _, dev := range devs {
		for _, ch := range dev.Channels {
			val, err := iio.ReadAttr(r.Fs, filepath.Join(dev.Dir, ch))
			if err != nil {
				glog.V(2).Infof("readout %s/%s: %v", dev.Name, ch, err)
				errs.Add(err)
				val = "-"
			}
			line.WriteString(val)
			line.WriteByte(' ')
		}
	}
	line.WriteByte('\n')
	if err := iio.AppendFile(r.Fs, r.Path, []byte(line.String())); err != nil {
		return err
	}
	return errs.Aggregate()
}

func (r *Readout) measured(ev *GlobalEvent) []*Device {
	var devs []*Device
	for _, index := range ev.Measured {
		if dev, ok := r.Registry.Device(index); ok {
			devs = append(devs, dev)
		}
	}
	return devs
}

func (r *Readout) writeHeader(devs []*Device) error {
	if err := r.Fs.MkdirAll(filepath.Dir(r.Path), 0775); err != nil {
		return &iio.AttrError{Op: "mkdir", Path: filepath.Dir(r.Path), Err: err}
	}
	var hdr strings.Builder
	if r.MachineID != "" {
		fmt.Fprintf(&hdr, "MACHINE: %s\n", r.MachineID)
	}
	hdr.WriteString(readoutHeader)
	n := 0
	for _, dev := range devs {
		for _, ch := range dev.Channels {
			n++
			fmt.Fprintf(&hdr, "%d) %s - %s\n", n, dev.Name, ch)
		}
	}
	hdr.WriteByte('\n')
	return iio.WriteAttr(r.Fs, r.Path, hdr.String())
}
