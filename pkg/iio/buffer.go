package iio

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/spf13/afero"
)

// Drain reads the records pending in the buffer of a device. devDir is the
// sysfs directory of the device and node its character device. The count
// of pending records is taken from buffer/data_available. A nil slice
// means nothing was pending.
func Drain(fs afero.Fs, devDir, node string) ([]byte, error) {
	avail, err := ReadIntAttr(fs, filepath.Join(devDir, "buffer", "data_available"))
	if err != nil {
		return nil, err
	}
	if avail <= 0 {
		return nil, nil
	}
	f, err := fs.Open(node)
	if err != nil {
		return nil, &AttrError{Op: "open", Path: node, Err: err}
	}
	defer f.Close()
	buf := make([]byte, avail*RecordLen)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &AttrError{Op: "read", Path: node, Err: err}
	}
	glog.V(4).Infof("drained %d of %d bytes from %s", n, len(buf), node)
	if n == 0 {
		return nil, nil
	}
	return buf[:n], nil
}
