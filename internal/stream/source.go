package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// LineSource reads lines from a stream in a dedicated goroutine and hands them over a channel, so
// the consumer can wait on new lines and timers at the same time. The blocking read is the only
// suspension point of the source.
type LineSource struct {
	reader *bufio.Reader
	err    error
	mutex  sync.Mutex
}

// NewLineSource creates a line source over a stream.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{reader: bufio.NewReader(r)}
}

// Lines starts reading and returns the channel of lines, each stripped of its trailing newline
// only. The channel is closed on end of input, on read error (see Err), or when the context is
// cancelled while a line is waiting to be delivered.
func (s *LineSource) Lines(ctx context.Context) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		for {
			line, err := s.reader.ReadString('\n')

			// A final line without a trailing newline is still delivered
			if len(line) > 0 {
				select {
				case lines <- strings.TrimSuffix(line, "\n"):
				case <-ctx.Done():
					return
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.setErr(fmt.Errorf("stream: error reading input: err=%w", err))
				}

				return
			}
		}
	}()

	return lines
}

// Err returns the read error that ended the source, if any. End of input is not an error.
func (s *LineSource) Err() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.err
}

func (s *LineSource) setErr(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.err = err
}
