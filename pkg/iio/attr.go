package iio

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// ReadAttr reads an attribute file and returns its content without
// surrounding whitespace.
func ReadAttr(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", &AttrError{Op: "read", Path: path, Err: err}
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadIntAttr reads an attribute holding a decimal integer.
func ReadIntAttr(fs afero.Fs, path string) (int, error) {
	s, err := ReadAttr(fs, path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &AttrError{Op: "parse", Path: path, Err: err}
	}
	return n, nil
}

// WriteAttr replaces the content of an attribute file with value.
func WriteAttr(fs afero.Fs, path, value string) error {
	if err := afero.WriteFile(fs, path, []byte(value), 0644); err != nil {
		return &AttrError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// AppendFile appends data to the file at path, creating it if needed.
func AppendFile(fs afero.Fs, path string, data []byte) error {
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return &AttrError{Op: "open", Path: path, Err: err}
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &AttrError{Op: "append", Path: path, Err: err}
	}
	return nil
}
