package iio

import "fmt"

// RecordLen is the length of one buffer record.
const RecordLen = 16

// Format describes the layout of the samples pushed into a device buffer.
type Format struct {
	// Widths holds the storage bits of each enabled channel in scan order.
	Widths []int
	// Timestamp is set when the timestamp channel is enabled.
	Timestamp bool
}

// Validate checks every width is a whole number of bytes in 8..64.
func (f Format) Validate() error {
	if len(f.Widths) == 0 {
		return fmt.Errorf("%w: no channels", ErrBadFormat)
	}
	for _, w := range f.Widths {
		if err := checkWidth(w); err != nil {
			return err
		}
	}
	return nil
}

// TupleSize returns the number of sample bytes of one scan, without
// the padding up to a full record.
func (f Format) TupleSize() int {
	size := 0
	for _, w := range f.Widths {
		size += w / 8
	}
	return size
}

// BatchSize returns the number of bytes decoded from each record. A
// format without timestamp is padded to a full record.
func (f Format) BatchSize() int {
	size := f.TupleSize()
	if !f.Timestamp && size < RecordLen {
		size = RecordLen
	}
	return size
}

// Extract decodes the channel values held in src. src is walked in record
// strides while the offset is below size, and at most size bytes are
// decoded in total. Channels are cycled in order across records. Decoding
// stops early when a value would be read past the end of src. The number
// of bytes decoded is returned with the values.
func (f Format) Extract(src []byte, size int) ([]int64, int, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	var (
		values []int64
		ch     int
		remain = size
		batch  = f.BatchSize()
	)
	for i := 0; i < size; i += RecordLen {
		for j := 0; j < batch && remain > 0; {
			ch %= len(f.Widths)
			n := f.Widths[ch] / 8
			off := i + j
			if off+n > len(src) {
				return values, size - remain, nil
			}
			values = append(values, MergeBytes(src[off:off+n], f.Widths[ch]))
			remain -= n
			j += n
			ch++
		}
	}
	return values, size - remain, nil
}

// DecodeRecords decodes every complete record of src, one scan per
// record. Each record is given a budget of one tuple so the padding
// after a short scan is never decoded. A trailing partial record is
// ignored. A tuple wider than a record is decoded across the whole of src.
func (f Format) DecodeRecords(src []byte) ([]int64, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var (
		values []int64
		tuple  = f.TupleSize()
	)
	if tuple > RecordLen {
		values, _, err := f.Extract(src, len(src))
		return values, err
	}
	for off := 0; off+RecordLen <= len(src); off += RecordLen {
		scan, _, err := f.Extract(src[off:off+RecordLen], tuple)
		if err != nil {
			return values, err
		}
		values = append(values, scan...)
	}
	return values, nil
}

// MergeBytes combines the first width/8 bytes of b, least significant
// first, and sign extends the result from bit width-1. It returns 0 when
// width is not in 8..64 or b holds fewer than width/8 bytes.
func MergeBytes(b []byte, width int) int64 {
	if width < 8 || width > 64 || len(b) < width/8 {
		return 0
	}
	var u uint64
	for i := 0; i < width/8; i++ {
		u |= uint64(b[i]) << (8 * i)
	}
	shift := 64 - uint(width)
	return int64(u<<shift) >> shift
}

// Reshape groups values into rows of n, one value per channel. A
// trailing incomplete row is kept.
func Reshape(values []int64, n int) [][]int64 {
	if n <= 0 {
		return nil
	}
	rows := make([][]int64, 0, (len(values)+n-1)/n)
	for len(values) > 0 {
		k := n
		if k > len(values) {
			k = len(values)
		}
		rows = append(rows, values[:k:k])
		values = values[k:]
	}
	return rows
}
