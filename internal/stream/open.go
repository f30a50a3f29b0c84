package stream

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// StdPath is the path denoting a standard stream: standard input for inputs, standard output for
// outputs. An empty path is equivalent.
const StdPath = "-"

// Input is a readable stream that knows whether it owns its underlying handle.
type Input struct {
	io.Reader

	name    string
	closers []io.Closer
}

// Output is a writable stream that knows whether it owns its underlying handle.
type Output struct {
	io.Writer

	name   string
	closer io.Closer
}

// OpenInput opens the input stream at the specified path. Paths ending in .gz are decompressed
// transparently, which allows replaying rotated logs.
func OpenInput(path string) (*Input, error) {
	if isStd(path) {
		return &Input{Reader: os.Stdin, name: "stdin"}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stream: error opening input: path=%s err=%w", path, err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return &Input{Reader: file, name: path, closers: []io.Closer{file}}, nil
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stream: error opening compressed input: path=%s err=%w", path, err)
	}

	// Close the decompressor before the file it reads from
	return &Input{Reader: gz, name: path, closers: []io.Closer{gz, file}}, nil
}

// OpenOutput opens the output stream at the specified path. Files are created if necessary and
// always appended to.
func OpenOutput(path string) (*Output, error) {
	if isStd(path) {
		return &Output{Writer: os.Stdout, name: "stdout"}, nil
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("stream: error opening output: path=%s err=%w", path, err)
	}

	return &Output{Writer: file, name: path, closer: file}, nil
}

// Name describes the stream for logging.
func (i *Input) Name() string {
	return i.name
}

// Close releases the handles owned by the input. It noops on standard input.
func (i *Input) Close() error {
	var firstErr error
	for _, closer := range i.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Name describes the stream for logging.
func (o *Output) Name() string {
	return o.name
}

// Close releases the handle owned by the output. It noops on standard output.
func (o *Output) Close() error {
	if o.closer == nil {
		return nil
	}

	return o.closer.Close()
}

func isStd(path string) bool {
	return path == "" || path == StdPath
}
