package telemetry

import (
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/afero"
)

// Metrics holds the counters of the flight software on a private
// registry. The registry is flushed to a node exporter textfile since
// the flight computer serves nothing over the network.
type Metrics struct {
	reg *prometheus.Registry

	DevicesRegistered prometheus.Counter
	DevicesFailed     prometheus.Counter
	AttrWrites        prometheus.Counter
	AttrFailures      prometheus.Counter
	BytesDrained      *prometheus.CounterVec
	SamplesDecoded    *prometheus.CounterVec
	CallbackErrors    *prometheus.CounterVec
	EventsFired       *prometheus.CounterVec
}

// NewMetrics creates and registers all counters.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		DevicesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hab_devices_registered_total",
			Help: "Devices registered successfully.",
		}),
		DevicesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hab_devices_failed_total",
			Help: "Devices whose registration failed.",
		}),
		AttrWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hab_attr_writes_total",
			Help: "Attribute writes issued while configuring devices.",
		}),
		AttrFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hab_attr_failures_total",
			Help: "Attribute reads or writes that failed.",
		}),
		BytesDrained: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hab_buffer_bytes_drained_total",
			Help: "Bytes read from device buffers.",
		}, []string{"device"}),
		SamplesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hab_samples_decoded_total",
			Help: "Channel values decoded from device buffers.",
		}, []string{"device"}),
		CallbackErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hab_callback_errors_total",
			Help: "Event callbacks that returned an error.",
		}, []string{"event"}),
		EventsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hab_events_fired_total",
			Help: "Timer events executed by the event loop.",
		}, []string{"event"}),
	}
	m.reg.MustRegister(
		m.DevicesRegistered,
		m.DevicesFailed,
		m.AttrWrites,
		m.AttrFailures,
		m.BytesDrained,
		m.SamplesDecoded,
		m.CallbackErrors,
		m.EventsFired,
	)
	return m
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// WriteTextfile writes the current values in the text exposition format
// to path on fs. The file is written aside and renamed over path.
func (m *Metrics) WriteTextfile(fs afero.Fs, path string) error {
	mfs, err := m.reg.Gather()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0775); err != nil {
		return err
	}
	tmp, err := afero.TempFile(fs, dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err = expfmt.MetricFamilyToText(tmp, mf); err != nil {
			break
		}
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = fs.Rename(tmp.Name(), path)
	}
	if err != nil {
		fs.Remove(tmp.Name())
	}
	return err
}

// The helpers below accept a nil *Metrics so callers can run without
// metrics in tests and tools.

// AttrOp counts one attribute write and its failure, if any.
func (m *Metrics) AttrOp(err error) {
	if m == nil {
		return
	}
	m.AttrWrites.Inc()
	if err != nil {
		m.AttrFailures.Inc()
	}
}

// DeviceDone counts the outcome of a device registration.
func (m *Metrics) DeviceDone(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.DevicesFailed.Inc()
		return
	}
	m.DevicesRegistered.Inc()
}

// Drained counts bytes read from the buffer of device and the values
// decoded from them.
func (m *Metrics) Drained(device string, bytes, values int) {
	if m == nil {
		return
	}
	m.BytesDrained.WithLabelValues(device).Add(float64(bytes))
	m.SamplesDecoded.WithLabelValues(device).Add(float64(values))
}

// Fired counts an event execution and its failure, if any.
func (m *Metrics) Fired(event string, err error) {
	if m == nil {
		return
	}
	m.EventsFired.WithLabelValues(event).Inc()
	if err != nil {
		m.CallbackErrors.WithLabelValues(event).Inc()
	}
}
