package iio

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
)

// ScanType describes how one scan element is stored in a buffer record,
// as reported by its scan_elements/*_type attribute.
type ScanType struct {
	BigEndian   bool
	Signed      bool
	RealBits    int
	StorageBits int
	Repeat      int
	Shift       int
}

var scanTypeRe = regexp.MustCompile(`^(le|be):([su])(\d+)/(\d+)(?:X(\d+))?(?:>>(\d+))?$`)

// ParseScanType parses a scan element type such as "le:s12/16>>4".
func ParseScanType(s string) (ScanType, error) {
	m := scanTypeRe.FindStringSubmatch(s)
	if m == nil {
		return ScanType{}, fmt.Errorf("%w: scan type %q", ErrBadFormat, s)
	}
	st := ScanType{
		BigEndian: m[1] == "be",
		Signed:    m[2] == "s",
		Repeat:    1,
	}
	st.RealBits, _ = strconv.Atoi(m[3])
	st.StorageBits, _ = strconv.Atoi(m[4])
	if m[5] != "" {
		st.Repeat, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		st.Shift, _ = strconv.Atoi(m[6])
	}
	if err := checkWidth(st.StorageBits); err != nil {
		return ScanType{}, fmt.Errorf("scan type %q: %w", s, err)
	}
	if st.RealBits == 0 || st.RealBits+st.Shift > st.StorageBits {
		return ScanType{}, fmt.Errorf("%w: scan type %q: %d bits shifted by %d exceed storage", ErrBadFormat, s, st.RealBits, st.Shift)
	}
	return st, nil
}

// ByteOrder returns the byte order of the element.
func (t ScanType) ByteOrder() binary.ByteOrder {
	if t.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// String renders t in the sysfs notation.
func (t ScanType) String() string {
	endian, sign := "le", "u"
	if t.BigEndian {
		endian = "be"
	}
	if t.Signed {
		sign = "s"
	}
	s := fmt.Sprintf("%s:%s%d/%d", endian, sign, t.RealBits, t.StorageBits)
	if t.Repeat > 1 {
		s += fmt.Sprintf("X%d", t.Repeat)
	}
	return s + fmt.Sprintf(">>%d", t.Shift)
}

func checkWidth(bits int) error {
	if bits < 8 || bits > 64 || bits%8 != 0 {
		return fmt.Errorf("%w: width %d is not a whole number of bytes in 8..64", ErrBadFormat, bits)
	}
	return nil
}
