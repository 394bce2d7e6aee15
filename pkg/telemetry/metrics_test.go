package telemetry

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.DevicesRegistered.Inc()
	m.DevicesRegistered.Inc()
	m.DevicesFailed.Inc()
	m.BytesDrained.WithLabelValues("mprls0025-18").Add(32)
	m.SamplesDecoded.WithLabelValues("mprls0025-18").Add(3)

	require.Equal(t, 2.0, testutil.ToFloat64(m.DevicesRegistered))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DevicesFailed))
	require.Equal(t, 32.0, testutil.ToFloat64(m.BytesDrained.WithLabelValues("mprls0025-18")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.SamplesDecoded.WithLabelValues("mprls0025-18")))
	require.Equal(t, 1, testutil.CollectAndCount(m.BytesDrained))
}

func TestMetricsTextfile(t *testing.T) {
	m := NewMetrics()
	m.AttrWrites.Add(5)
	m.CallbackErrors.WithLabelValues("readout").Inc()

	fs := afero.NewMemMapFs()
	path := "/media/hab_flight_data/hab.prom"
	require.NoError(t, m.WriteTextfile(fs, path))
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.Contains(text, "hab_attr_writes_total 5"), text)
	require.True(t, strings.Contains(text, `hab_callback_errors_total{event="readout"} 1`), text)

	// a second flush replaces the file and leaves no temporary behind.
	m.AttrWrites.Inc()
	require.NoError(t, m.WriteTextfile(fs, path))
	data, err = afero.ReadFile(fs, path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "hab_attr_writes_total 6"), string(data))
	entries, err := afero.ReadDir(fs, "/media/hab_flight_data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMetricsTextfileReadOnly(t *testing.T) {
	m := NewMetrics()
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	require.Error(t, m.WriteTextfile(fs, "/media/hab_flight_data/hab.prom"))
}

func TestMetricsPrivateRegistry(t *testing.T) {
	// two instances must not collide.
	a, b := NewMetrics(), NewMetrics()
	a.DevicesRegistered.Inc()
	require.Equal(t, 0.0, testutil.ToFloat64(b.DevicesRegistered))
	count, err := testutil.GatherAndCount(a.Registry(), "hab_devices_registered_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMetricsHelpers(t *testing.T) {
	m := NewMetrics()
	m.AttrOp(nil)
	m.AttrOp(errors.New("boom"))
	m.DeviceDone(nil)
	m.DeviceDone(errors.New("boom"))
	m.Drained("sht4x-44", 16, 2)
	m.Fired("sht4x-44", nil)
	m.Fired("sht4x-44", errors.New("boom"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.AttrWrites))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AttrFailures))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DevicesRegistered))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DevicesFailed))
	require.Equal(t, 16.0, testutil.ToFloat64(m.BytesDrained.WithLabelValues("sht4x-44")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.SamplesDecoded.WithLabelValues("sht4x-44")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.EventsFired.WithLabelValues("sht4x-44")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CallbackErrors.WithLabelValues("sht4x-44")))

	var none *Metrics
	require.NotPanics(t, func() {
		none.AttrOp(nil)
		none.DeviceDone(nil)
		none.Drained("x", 1, 1)
		none.Fired("x", nil)
	})
}
