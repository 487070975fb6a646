package datasets

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// maxLineBytes bounds a single record line. A 2048-token line of 8-bit
// intensities is under 8 KiB.
const maxLineBytes = 1 << 20

func parseToken(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty token")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return sc
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// CountLines counts the non-blank lines of src without decoding them.
func CountLines(src Source) (int, error) {
	rc, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	sc := newLineScanner(rc)

	count := 0
	for sc.Scan() {
		if isBlank(sc.Text()) {
			continue
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return 0, errors.Wrapf(err, "failed to count lines in %s", src.Name())
	}
	return count, nil
}

// ExpandPath replaces a leading "~" with the current user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
