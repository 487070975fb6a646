package datasets

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Source is storage that yields the text lines of one partition. Each Open
// starts a new pass from the beginning, if the storage supports it.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource reads a partition from a text file. It can be reopened any
// number of times.
type FileSource struct {
	Path string
}

// Name returns the file path.
func (s FileSource) Name() string {
	return s.Path
}

// Open opens the file for a new pass.
func (s FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", s.Path)
	}
	return f, nil
}

// readerSource wraps an io.Reader that can only be read once.
type readerSource struct {
	name string

	mu     sync.Mutex
	r      io.Reader
	opened bool
}

// NewReaderSource returns a single-pass Source over r. The second Open fails
// with ErrSourceConsumed.
func NewReaderSource(name string, r io.Reader) Source {
	return &readerSource{name: name, r: r}
}

func (s *readerSource) Name() string {
	return s.name
}

func (s *readerSource) Open() (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil, errors.Wrapf(ErrSourceConsumed, "failed to open %s", s.name)
	}
	s.opened = true
	if rc, ok := s.r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(s.r), nil
}
