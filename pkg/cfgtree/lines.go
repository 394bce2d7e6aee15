package cfgtree

import (
	"bufio"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// ReadLines reads config lines from r. Carriage returns are dropped and
// blank lines skipped.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ReplaceAll(scanner.Text(), "\r", "")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// LoadFile reads the config file at path and builds its tree.
func LoadFile(fs afero.Fs, path string) (*Node, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lines, err := ReadLines(f)
	if err != nil {
		return nil, err
	}
	return Build(lines)
}
