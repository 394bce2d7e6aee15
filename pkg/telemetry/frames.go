package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/golang/protobuf/proto"
)

// Frame is one decoded sample row of a device.
type Frame struct {
	Time   time.Time
	Values []int64
}

// FrameWriter appends frames to w in protobuf wire encoding. Each frame
// is length delimited and holds the unix nanosecond timestamp, the value
// count and the zigzag encoded values.
type FrameWriter struct {
	w    io.Writer
	body *proto.Buffer
	out  *proto.Buffer
}

// NewFrameWriter creates a FrameWriter on w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w, body: proto.NewBuffer(nil), out: proto.NewBuffer(nil)}
}

// Write encodes and writes frames.
func (fw *FrameWriter) Write(frames ...Frame) error {
	fw.out.Reset()
	for _, f := range frames {
		fw.body.Reset()
		fw.body.EncodeVarint(uint64(f.Time.UnixNano()))
		fw.body.EncodeVarint(uint64(len(f.Values)))
		for _, v := range f.Values {
			fw.body.EncodeZigzag64(uint64(v))
		}
		fw.out.EncodeRawBytes(fw.body.Bytes())
	}
	_, err := fw.w.Write(fw.out.Bytes())
	return err
}

// ReadFrames decodes every frame from r.
func ReadFrames(r io.Reader) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var frames []Frame
	buf := proto.NewBuffer(data)
	for len(buf.Unread()) > 0 {
		raw, err := buf.DecodeRawBytes(false)
		if err != nil {
			return frames, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		f, err := decodeFrame(raw)
		if err != nil {
			return frames, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func decodeFrame(raw []byte) (Frame, error) {
	b := proto.NewBuffer(raw)
	ts, err := b.DecodeVarint()
	if err != nil {
		return Frame{}, err
	}
	n, err := b.DecodeVarint()
	if err != nil {
		return Frame{}, err
	}
	if n > uint64(len(raw)) {
		return Frame{}, fmt.Errorf("value count %d exceeds frame length %d", n, len(raw))
	}
	f := Frame{Time: time.Unix(0, int64(ts)), Values: make([]int64, n)}
	for i := range f.Values {
		v, err := b.DecodeZigzag64()
		if err != nil {
			return Frame{}, err
		}
		f.Values[i] = int64(v)
	}
	return f, nil
}
