package habdev

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/Evsless/hab/pkg/iio"
	"github.com/Evsless/hab/pkg/telemetry"
)

const globalConf = `<ev_global>
<index>
<val>0</val>
</index>
<event>
<tim_to>
<val>0</val>
</tim_to>
<tim_rep>
<val>1000</val>
</tim_rep>
</event>
</ev_global>
`

const measuredConf = `<iio_dev>
<channels>
<chan>
<name>in_temp_input</name>
</chan>
<chan>
<name>in_humidityrelative_input</name>
</chan>
</channels>
<global_ev_ref>
<val>0</val>
</global_ev_ref>
</iio_dev>
`

func (f *fixture) bufferedDevice(t *testing.T) *Device {
	dir := f.iioDevice(t, 1, "mprls0025", []byte{0x18})
	f.file(t, dir+"/scan_elements/in_pressure_type", "le:u24/32>>0\n")
	f.file(t, dir+"/scan_elements/in_timestamp_type", "le:s64/64>>0\n")
	f.file(t, "/etc/hab/mprls", buffConf)
	f.reg.Triggers.Add(&iio.Trigger{Index: 0, Name: "habtrig-100"})
	dev, err := f.reg.Register(DeviceSpec{Index: 1, Config: "/etc/hab/mprls", Trigger: 0})
	require.NoError(t, err)
	return dev
}

func TestBufferLogger(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(1713600000, 0)
	var rows [][]int64
	logger := &BufferLogger{
		Fs:       f.fs,
		Metrics:  f.metrics,
		FrameLog: true,
		Consumers: []Consumer{ConsumerFunc(func(ctx context.Context, dev *Device, r [][]int64) error {
			rows = append(rows, r...)
			return nil
		})},
		Annotate: func(*Device) string { return "wiper 3" },
		Now:      func() time.Time { return now },
	}
	f.reg.Callbacks.SetDevice(1, logger.Run)
	dev := f.bufferedDevice(t)

	f.file(t, dev.Dir+"/buffer/data_available", "1\n")
	f.file(t, dev.BufferPaths[0], string([]byte{
		0xa0, 0x86, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}))
	require.NoError(t, dev.Event.Fire(context.Background()))

	require.Equal(t, [][]int64{{100000, 1}}, rows)
	require.Equal(t, "86a0 0001 0001 0000 0000 0000 0000 0000 | wiper 3\n", f.read(t, dev.LogPath))

	frames, err := readFrames(f.fs, dev.LogPath+".frames")
	require.NoError(t, err)
	require.Len(t, frames, 1)
	require.Equal(t, []int64{100000, 1}, frames[0].Values)
	require.Equal(t, now.UnixNano(), frames[0].Time.UnixNano())

	require.Equal(t, 16.0, testutil.ToFloat64(f.metrics.BytesDrained.WithLabelValues(dev.Name)))
	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SamplesDecoded.WithLabelValues(dev.Name)))
}

const accelConf = `<iio_buff_dev>
<buff>
<channels>
<chan>
<name>in_accel_x_en</name>
<val>1</val>
</chan>
<chan>
<name>in_accel_y_en</name>
<val>1</val>
</chan>
<chan>
<name>in_accel_z_en</name>
<val>1</val>
</chan>
</channels>
</buff>
</iio_buff_dev>
`

func TestBufferLoggerSkipsPadding(t *testing.T) {
	f := newFixture(t)
	dir := f.iioDevice(t, 2, "icm20948", []byte{0x68})
	for _, axis := range []string{"x", "y", "z"} {
		f.file(t, dir+"/scan_elements/in_accel_"+axis+"_type", "le:s16/16>>0\n")
	}
	f.file(t, "/etc/hab/icm20948", accelConf)
	f.reg.Triggers.Add(&iio.Trigger{Index: 0, Name: "habtrig-10"})
	dev, err := f.reg.Register(DeviceSpec{Index: 2, Config: "/etc/hab/icm20948", Trigger: 0})
	require.NoError(t, err)
	require.Equal(t, iio.Format{Widths: []int{16, 16, 16}}, dev.Format)

	testCases := []struct {
		name   string
		avail  string
		data   []byte
		expect [][]int64
	}{
		{
			name:  "single record",
			avail: "1\n",
			data: []byte{
				0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
			expect: [][]int64{{1, 2, 3}},
		},
		{
			name:  "two records",
			avail: "2\n",
			data: []byte{
				0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0xfc, 0xff, 0x05, 0x00, 0x06, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
			expect: [][]int64{{1, 2, 3}, {-4, 5, 6}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rows [][]int64
			logger := &BufferLogger{
				Fs: f.fs,
				Consumers: []Consumer{ConsumerFunc(func(ctx context.Context, dev *Device, r [][]int64) error {
					rows = append(rows, r...)
					return nil
				})},
			}
			f.file(t, dir+"/buffer/data_available", tc.avail)
			f.file(t, dev.BufferPaths[0], string(tc.data))
			require.NoError(t, logger.Run(context.Background(), dev))
			require.Equal(t, tc.expect, rows)
		})
	}
}

func TestCompleteRows(t *testing.T) {
	require.Equal(t, [][]int64{{1, 2, 3}}, completeRows([][]int64{{1, 2, 3}, {0, 0}}, 3))
	require.Equal(t, [][]int64{{1, 2}}, completeRows([][]int64{{1, 2}}, 2))
	require.Empty(t, completeRows(nil, 2))
}

func readFrames(fs afero.Fs, path string) ([]telemetry.Frame, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return telemetry.ReadFrames(f)
}

func TestBufferLoggerNothingPending(t *testing.T) {
	f := newFixture(t)
	dev := f.bufferedDevice(t)
	f.file(t, dev.Dir+"/buffer/data_available", "0\n")

	logger := &BufferLogger{Fs: f.fs}
	require.NoError(t, logger.Run(context.Background(), dev))
	exists, err := afero.Exists(f.fs, dev.LogPath)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestBufferLoggerErrors(t *testing.T) {
	f := newFixture(t)
	logger := &BufferLogger{Fs: f.fs}
	require.ErrorIs(t, logger.Run(context.Background(), &Device{Name: "x"}), ErrNoBuffer)

	dev := f.bufferedDevice(t)
	f.file(t, dev.Dir+"/buffer/data_available", "1\n")
	f.file(t, dev.BufferPaths[0], string(make([]byte, 16)))
	boom := errors.New("boom")
	logger.Consumers = []Consumer{ConsumerFunc(func(context.Context, *Device, [][]int64) error { return boom })}
	require.ErrorIs(t, logger.Run(context.Background(), dev), boom)
}

func TestGlobalEventReadout(t *testing.T) {
	f := newFixture(t)
	readout := NewReadout(f.fs, f.reg.Registry, storageRoot, "c0ffee")
	readout.Now = func() time.Time { return time.Unix(1713600000, 0) }
	f.reg.Callbacks.SetGlobal(0, readout.Run)

	f.file(t, "/etc/hab/ev_main", globalConf)
	g, err := f.reg.RegisterGlobal(GlobalSpec{ID: 0, Name: "main", Config: "/etc/hab/ev_main"})
	require.NoError(t, err)
	require.Equal(t, 0, g.Index)
	require.Equal(t, time.Duration(0), g.Event.Timeout)
	require.Equal(t, time.Second, g.Event.Repeat)
	require.True(t, g.Event.Bound())

	dir := f.iioDevice(t, 4, "sht4x", []byte{0x44})
	f.file(t, dir+"/in_temp_input", "21500\n")
	f.file(t, dir+"/in_humidityrelative_input", "40250\n")
	f.file(t, "/etc/hab/sht4x", measuredConf)
	dev, err := f.reg.Register(DeviceSpec{Index: 4, Config: "/etc/hab/sht4x", Trigger: -1})
	require.NoError(t, err)
	require.Equal(t, []int{0}, dev.GlobalRefs)
	require.Equal(t, []int{4}, g.Measured)

	require.NoError(t, g.Event.Fire(context.Background()))
	f.file(t, dir+"/in_temp_input", "21625\n")
	require.NoError(t, g.Event.Fire(context.Background()))

	require.Equal(t, "MACHINE: c0ffee\n"+
		"DATA FORMAT: VALUES FROM LEFT TO RIGHT.\n"+
		"TIMESTAMP ALWAYS IS FIRST\n"+
		"1) sht4x-44 - in_temp_input\n"+
		"2) sht4x-44 - in_humidityrelative_input\n"+
		"\n"+
		"1713600000 21500 40250 \n"+
		"1713600000 21625 40250 \n",
		f.read(t, storageRoot+"/task_main/dev_readout"))
}

func TestReadoutMissingChannel(t *testing.T) {
	f := newFixture(t)
	readout := NewReadout(f.fs, f.reg.Registry, storageRoot, "")
	readout.Now = func() time.Time { return time.Unix(10, 0) }
	dir := f.iioDevice(t, 4, "sht4x", nil)
	f.file(t, dir+"/in_temp_input", "21500\n")
	f.file(t, "/etc/hab/sht4x", "<iio_dev>\n<channels>\n<chan>\n<name>in_temp_input</name>\n</chan>\n<chan>\n<name>in_gone</name>\n</chan>\n</channels>\n</iio_dev>\n")
	_, err := f.reg.Register(DeviceSpec{Index: 4, Config: "/etc/hab/sht4x", Trigger: -1})
	require.NoError(t, err)

	err = readout.Run(context.Background(), &GlobalEvent{Measured: []int{4, 99}})
	require.Error(t, err)
	require.Equal(t, "DATA FORMAT: VALUES FROM LEFT TO RIGHT.\n"+
		"TIMESTAMP ALWAYS IS FIRST\n"+
		"1) sht4x - in_temp_input\n"+
		"2) sht4x - in_gone\n"+
		"\n"+
		"10 21500 - \n",
		f.read(t, storageRoot+"/task_main/dev_readout"))
}

func TestRegisterGlobalErrors(t *testing.T) {
	f := newFixture(t)
	f.file(t, "/etc/hab/notglobal", iioConf)
	_, err := f.reg.RegisterGlobal(GlobalSpec{ID: 1, Config: "/etc/hab/notglobal"})
	require.ErrorIs(t, err, ErrUnknownKind)

	f.file(t, "/etc/hab/badindex", "<ev_global>\n<index>\n<val>x</val>\n</index>\n</ev_global>\n")
	_, err = f.reg.RegisterGlobal(GlobalSpec{ID: 1, Config: "/etc/hab/badindex"})
	require.ErrorIs(t, err, ErrBadValue)

	_, ok := f.reg.Registry.GlobalEvent(1)
	require.False(t, ok)
	require.Empty(t, f.reg.Registry.GlobalEvents())
}

func TestRegisterDuplicateIndex(t *testing.T) {
	f := newFixture(t)
	f.file(t, "/etc/hab/ev_main", globalConf)
	g, err := f.reg.RegisterGlobal(GlobalSpec{ID: 0, Name: "main", Config: "/etc/hab/ev_main"})
	require.NoError(t, err)

	_, err = f.reg.RegisterGlobal(GlobalSpec{ID: 0, Name: "again", Config: "/etc/hab/ev_main"})
	require.ErrorIs(t, err, ErrDuplicateIndex)
	got, ok := f.reg.Registry.GlobalEvent(0)
	require.True(t, ok)
	require.Same(t, g, got)
	require.Len(t, f.reg.Registry.GlobalEvents(), 1)

	dir := f.iioDevice(t, 4, "sht4x", []byte{0x44})
	f.file(t, dir+"/in_temp_input", "21500\n")
	f.file(t, dir+"/in_humidityrelative_input", "40250\n")
	f.file(t, "/etc/hab/sht4x", measuredConf)
	first, err := f.reg.Register(DeviceSpec{Index: 4, Config: "/etc/hab/sht4x", Trigger: -1})
	require.NoError(t, err)

	_, err = f.reg.Register(DeviceSpec{Index: 4, Config: "/etc/hab/sht4x", Trigger: -1})
	require.ErrorIs(t, err, ErrDuplicateIndex)
	var rerr *RegisterError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, StageLoad, rerr.Stage)

	dev, ok := f.reg.Registry.Device(4)
	require.True(t, ok)
	require.Same(t, first, dev)
	require.Len(t, f.reg.Registry.Devices(), 1)
	require.Equal(t, []int{4}, g.Measured)
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DevicesFailed))
}
