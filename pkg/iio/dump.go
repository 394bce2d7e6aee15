package iio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Dump writes data as hex text, one line per record. Adjacent bytes are
// swapped so each space separated word reads as a little-endian 16-bit
// value. When annotation is not empty it is appended to every line after
// a "| " separator. Trailing bytes that do not fill a record are ignored.
func Dump(w io.Writer, data []byte, annotation string) error {
	var line bytes.Buffer
	for off := 0; off+RecordLen <= len(data); off += RecordLen {
		line.Reset()
		rec := data[off : off+RecordLen]
		for j := 0; j < RecordLen; j += 2 {
			fmt.Fprintf(&line, "%02x%02x ", rec[j+1], rec[j])
		}
		if annotation != "" {
			fmt.Fprintf(&line, "| %s", annotation)
		}
		line.WriteByte('\n')
		if _, err := w.Write(line.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// AppendDump appends the hexdump of data to the log at path.
func AppendDump(fs afero.Fs, path string, data []byte, annotation string) error {
	var buf bytes.Buffer
	if err := Dump(&buf, data, annotation); err != nil {
		return err
	}
	if buf.Len() == 0 {
		return nil
	}
	return AppendFile(fs, path, buf.Bytes())
}
