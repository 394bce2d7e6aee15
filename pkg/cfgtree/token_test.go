package cfgtree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		name   string
		line   string
		expect Token
	}{
		{
			name:   "open",
			line:   "<buff>\n",
			expect: Token{Tag: TagBuffer},
		},
		{
			name:   "open without newline",
			line:   "<buff>",
			expect: Token{Tag: TagBuffer},
		},
		{
			name:   "close",
			line:   "</channels>\n",
			expect: Token{Tag: TagChannels, Close: true},
		},
		{
			name:   "inline value",
			line:   "<name>in_voltage0-voltage1_en</name>\n",
			expect: Token{Tag: TagName, Close: true, HasValue: true, Value: "in_voltage0-voltage1_en"},
		},
		{
			name:   "indented",
			line:   "    <tim_rep>",
			expect: Token{Tag: TagRepeat},
		},
		{
			name:   "value with spaces",
			line:   "<val>libcamera-still -n -o</val>",
			expect: Token{Tag: TagValue, Close: true, HasValue: true, Value: "libcamera-still -n -o"},
		},
		{
			name:   "unknown tag",
			line:   "<bogus>",
			expect: Token{Tag: TagUnknown},
		},
		{
			name:   "no markup",
			line:   "just text",
			expect: Token{},
		},
		{
			name:   "empty",
			line:   "",
			expect: Token{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, Tokenize(tc.line))
		})
	}
}

func TestTokenizeNoLeakBetweenLines(t *testing.T) {
	// an unterminated tag name must not bleed into the next line; the
	// following name line still resolves as in TestBuildChannelNameRoleAndValue.
	first := Tokenize("<chan")
	require.Equal(t, Token{}, first)
	second := Tokenize("<name>in_voltage0-voltage1_en</name>")
	require.Equal(t, TagName, second.Tag)
	require.True(t, second.HasValue)
	require.Equal(t, "in_voltage0-voltage1_en", second.Value)
}

func TestTokenizeConcurrent(t *testing.T) {
	lines := []string{"<buff>", "</chan>", "<val>42</val>", "<tim_to>"}
	expect := make([]Token, len(lines))
	for n, l := range lines {
		expect[n] = Tokenize(l)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n := j % len(lines)
				if Tokenize(lines[n]) != expect[n] {
					t.Errorf("token mismatch for %q", lines[n])
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestTokenCode(t *testing.T) {
	require.Equal(t, RegName, Tokenize("<name>x</name>").Code())
	require.Equal(t, DevTypeIIOBuff, Tokenize("<iio_buff_dev>").Code())
	require.Equal(t, Code(0), Tokenize("<nope>").Code())
}
