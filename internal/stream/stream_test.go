package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bassosimone/runtimex"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"dnsanon/internal/logline"
)

func collect(t *testing.T, r io.Reader) ([]string, *LineSource) {
	t.Helper()

	source := NewLineSource(r)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var lines []string
	for line := range source.Lines(ctx) {
		lines = append(lines, line)
	}

	return lines, source
}

func TestLineSourceStripsOnlyNewline(t *testing.T) {
	lines, source := collect(t, strings.NewReader("first\r\n  second  \n\nlast without newline"))

	require.Equal(t, []string{"first\r", "  second  ", "", "last without newline"}, lines)
	require.NoError(t, source.Err())
}

func TestLineSourceEmptyInput(t *testing.T) {
	lines, source := collect(t, strings.NewReader(""))

	require.Empty(t, lines)
	require.NoError(t, source.Err())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestLineSourceReportsReadError(t *testing.T) {
	lines, source := collect(t, failingReader{})

	require.Empty(t, lines)
	require.Error(t, source.Err())
	require.Contains(t, source.Err().Error(), "disk on fire")
}

func TestLineSourceStopsOnCancel(t *testing.T) {
	source := NewLineSource(strings.NewReader("a\nb\nc\n"))
	ctx, cancel := context.WithCancel(context.Background())

	lines := source.Lines(ctx)
	require.Equal(t, "a", <-lines)
	cancel()

	// The reader goroutine gives up on delivery and closes the channel.
	for range lines {
	}
}

// countingWriter records every write that reaches the underlying stream.
type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func TestEmitterFlushesEveryLine(t *testing.T) {
	out := &countingWriter{}
	emitter := NewEmitter(out)

	require.NoError(t, emitter.EmitRaw("dnsmasq: started"))
	require.Equal(t, 1, out.writes)
	require.Equal(t, "dnsmasq: started\n", out.String())

	parser := logline.NewParser(logline.Dnsmasq(), time.Now)
	first := parser.Parse("Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 query[A] example.com from 10.0.0.7")
	second := parser.Parse("Jan  1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 reply example.com is 0.0.0.0")

	require.NoError(t, emitter.EmitGroup([]*logline.Record{first.Record, second.Record}))
	require.Equal(t, 3, out.writes)
	require.Equal(
		t,
		"dnsmasq: started\n"+
			"Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 query[A] example.com from 10.0.0.7\n"+
			"Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 reply example.com is 0.0.0.0\n",
		out.String(),
	)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestEmitterSurfacesWriteErrors(t *testing.T) {
	emitter := NewEmitter(brokenWriter{})

	require.Error(t, emitter.EmitRaw("anything"))
}

func TestOpenStandardStreams(t *testing.T) {
	in := runtimex.PanicOnError1(OpenInput(StdPath))
	require.Equal(t, "stdin", in.Name())
	require.Same(t, os.Stdin, in.Reader)
	require.NoError(t, in.Close())

	out := runtimex.PanicOnError1(OpenOutput(""))
	require.Equal(t, "stdout", out.Name())
	require.Same(t, os.Stdout, out.Writer)
	require.NoError(t, out.Close())
}

func TestOpenPlainInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnsmasq.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0644))

	in := runtimex.PanicOnError1(OpenInput(path))
	defer in.Close()

	lines, _ := collect(t, in)
	require.Equal(t, []string{"one", "two"}, lines)
}

func TestOpenCompressedInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnsmasq.log.gz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	in := runtimex.PanicOnError1(OpenInput(path))
	lines, _ := collect(t, in)
	require.Equal(t, []string{"one", "two"}, lines)
	require.NoError(t, in.Close())
}

func TestOpenMissingInput(t *testing.T) {
	_, err := OpenInput(filepath.Join(t.TempDir(), "missing.log"))
	require.Error(t, err)
}

func TestOpenOutputAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anonymized.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	out := runtimex.PanicOnError1(OpenOutput(path))
	require.NoError(t, NewEmitter(out).EmitRaw("appended"))
	require.NoError(t, out.Close())

	data := runtimex.PanicOnError1(os.ReadFile(path))
	require.Equal(t, "existing\nappended\n", string(data))
}

func TestOpenOutputUnwritable(t *testing.T) {
	_, err := OpenOutput(filepath.Join(t.TempDir(), "missing", "dir", "out.log"))
	require.Error(t, err)
}
