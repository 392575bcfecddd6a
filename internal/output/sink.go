package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
)

// Sink is the single destination shared by every script section.
// Writes are serialized so the lines of one entry are never split.
type Sink struct {
	mu       sync.Mutex
	w        io.Writer
	file     *os.File
	path     string
	once     sync.Once
	closeErr error
}

// Open returns a sink writing to a newly created file at path, or to stdout
// when path is empty. The stdout writer is never closed.
func Open(path string, stdout io.Writer) (*Sink, error) {
	if path == "" {
		return &Sink{w: stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &Sink{w: f, file: f, path: path}, nil
}

// Path returns the output file path, or "" for stdout
func (s *Sink) Path() string { return s.path }

// IsFile reports whether the sink owns a file that Close will release
func (s *Sink) IsFile() bool { return s.file != nil }

// WriteEntry writes the given lines, each terminated by a newline, as one
// contiguous block.
func (s *Sink) WriteEntry(lines ...string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, b.String()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Close closes a file sink. It is safe to call more than once; only the
// first call has an effect.
func (s *Sink) Close() error {
	s.once.Do(func() {
		if s.file == nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.file.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close output file: %w", err)
		}
	})
	return s.closeErr
}

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe.
// Happens when the script is piped into a consumer that exits early.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}
