package sample

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/Evsless/hab/pkg/cli/sh"
	"github.com/Evsless/hab/pkg/iio"
)

const timestampWidth = 64

// ParseFormat parses comma separated storage widths. The element "ts"
// stands for the 64 bit timestamp channel.
func ParseFormat(s string) (iio.Format, error) {
	var f iio.Format
	for _, w := range strings.Split(s, ",") {
		if w == "ts" {
			f.Widths = append(f.Widths, timestampWidth)
			f.Timestamp = true
			continue
		}
		bits, err := strconv.Atoi(w)
		if err != nil {
			return iio.Format{}, fmt.Errorf("invalid width %q", w)
		}
		f.Widths = append(f.Widths, bits)
	}
	if err := f.Validate(); err != nil {
		return iio.Format{}, err
	}
	return f, nil
}

// ParseHex decodes hex digits, ignoring whitespace.
func ParseHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.Join(strings.Fields(s), ""))
}

// Decode extracts the rows held in data, decoding at most size bytes.
// A negative size decodes all of data.
func Decode(f iio.Format, data []byte, size int) ([][]int64, int, error) {
	if size < 0 {
		size = len(data)
	}
	values, consumed, err := f.Extract(data, size)
	if err != nil {
		return nil, 0, err
	}
	return iio.Reshape(values, len(f.Widths)), consumed, nil
}

var (
	// DecodeCmd decodes raw buffer records.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"dec"},
		Help:    "WIDTHS HEX [SIZE]",
		Func: sh.NeedArgs(2, func(c *ishell.Context) {
			f, err := ParseFormat(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			data, err := ParseHex(c.Args[1])
			if err != nil {
				c.Err(fmt.Errorf("invalid HEX: %v", err))
				return
			}
			size := -1
			if len(c.Args) > 2 {
				if size, err = strconv.Atoi(c.Args[2]); err != nil {
					c.Err(fmt.Errorf("invalid SIZE: %v", err))
					return
				}
			}
			rows, consumed, err := Decode(f, data, size)
			if err != nil {
				c.Err(err)
				return
			}
			for _, row := range rows {
				c.Println(row)
			}
			c.Printf("%d bytes decoded\n", consumed)
		}),
	}

	// ScanCmd parses a scan element type.
	ScanCmd = ishell.Cmd{
		Name:    "scan",
		Aliases: []string{"st"},
		Help:    "TYPE (e.g. le:s16/16>>0)",
		Func: sh.NeedArgs(1, func(c *ishell.Context) {
			st, err := iio.ParseScanType(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s order=%s signed=%v real=%d storage=%d shift=%d\n",
				st, st.ByteOrder(), st.Signed, st.RealBits, st.StorageBits, st.Shift)
		}),
	}

	// DumpCmd prints raw records the way device logs hold them.
	DumpCmd = ishell.Cmd{
		Name:    "dump",
		Aliases: []string{"hd"},
		Help:    "HEX [ANNOTATION]",
		Func: sh.NeedArgs(1, func(c *ishell.Context) {
			data, err := ParseHex(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("invalid HEX: %v", err))
				return
			}
			var out bytes.Buffer
			if err := iio.Dump(&out, data, strings.Join(c.Args[1:], " ")); err != nil {
				c.Err(err)
				return
			}
			c.Print(out.String())
		}),
	}
)

func init() {
	sh.AddCmds(
		&DecodeCmd,
		&ScanCmd,
		&DumpCmd,
	)
}
