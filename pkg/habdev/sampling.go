package habdev

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/Evsless/hab/pkg/iio"
	"github.com/Evsless/hab/pkg/telemetry"
)

// Consumer receives the decoded rows of a device buffer, one value per
// scan element in each row. Free-fall detection and the feedback loops
// plug in here.
type Consumer interface {
	Consume(ctx context.Context, dev *Device, rows [][]int64) error
}

// ConsumerFunc is the func form of Consumer.
type ConsumerFunc func(ctx context.Context, dev *Device, rows [][]int64) error

// Consume implements Consumer.
func (f ConsumerFunc) Consume(ctx context.Context, dev *Device, rows [][]int64) error {
	return f(ctx, dev, rows)
}

// BufferLogger is the sampling callback of buffered devices. Each run
// drains the first buffer, appends the hexdump to the device log, decodes
// the records and hands the rows to the consumers.
type BufferLogger struct {
	Fs      afero.Fs
	Metrics *telemetry.Metrics
	// FrameLog additionally appends the decoded rows to <log>.frames.
	FrameLog  bool
	Consumers []Consumer
	// Annotate returns the annotation of the dumped records.
	Annotate func(*Device) string
	Now      func() time.Time
}

// Run drains and logs dev. It matches DeviceCallback.
func (b *BufferLogger) Run(ctx context.Context, dev *Device) error {
	if dev.BufferCount() == 0 {
		return ErrNoBuffer
	}
	data, err := iio.Drain(b.Fs, dev.Dir, dev.BufferPaths[0])
	if err != nil || len(data) == 0 {
		return err
	}
	var annotation string
	if b.Annotate != nil {
		annotation = b.Annotate(dev)
	}
	if err := iio.AppendDump(b.Fs, dev.LogPath, data, annotation); err != nil {
		return err
	}
	values, err := dev.Format.DecodeRecords(data)
	b.Metrics.Drained(dev.Name, len(data), len(values))
	if err != nil {
		return err
	}
	rows := completeRows(iio.Reshape(values, len(dev.Format.Widths)), len(dev.Format.Widths))
	for _, c := range b.Consumers {
		if err := c.Consume(ctx, dev, rows); err != nil {
			return err
		}
	}
	if b.FrameLog && len(rows) > 0 {
		return b.appendFrames(dev, rows)
	}
	return nil
}

// completeRows drops a trailing row missing channels.
func completeRows(rows [][]int64, n int) [][]int64 {
	if k := len(rows); k > 0 && len(rows[k-1]) < n {
		return rows[:k-1]
	}
	return rows
}

func (b *BufferLogger) appendFrames(dev *Device, rows [][]int64) error {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	ts := now()
	frames := make([]telemetry.Frame, len(rows))
	for n, row := range rows {
		frames[n] = telemetry.Frame{Time: ts, Values: row}
	}
	var buf bytes.Buffer
	if err := telemetry.NewFrameWriter(&buf).Write(frames...); err != nil {
		return err
	}
	return iio.AppendFile(b.Fs, dev.LogPath+".frames", buf.Bytes())
}
