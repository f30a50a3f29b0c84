package stream

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"dnsanon/internal/logline"
)

// Emitter serializes records and passthrough lines onto the output stream, one line each, flushing
// after every write so downstream readers are never more than one line behind.
type Emitter struct {
	writer *bufio.Writer
	mutex  sync.Mutex
}

// NewEmitter creates an emitter writing to the specified stream.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{writer: bufio.NewWriter(w)}
}

// EmitRecord writes a structured record as its fields joined by single spaces.
func (e *Emitter) EmitRecord(record *logline.Record) error {
	return e.EmitRaw(record.String())
}

// EmitRaw writes an unstructured line exactly as received.
func (e *Emitter) EmitRaw(line string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if _, err := e.writer.WriteString(line); err != nil {
		return fmt.Errorf("emitter: error writing line: err=%w", err)
	}

	if err := e.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("emitter: error writing line: err=%w", err)
	}

	if err := e.writer.Flush(); err != nil {
		return fmt.Errorf("emitter: error flushing output: err=%w", err)
	}

	return nil
}

// EmitGroup writes every record of a transaction in order, stopping at the first failure.
func (e *Emitter) EmitGroup(records []*logline.Record) error {
	for _, record := range records {
		if err := e.EmitRecord(record); err != nil {
			return err
		}
	}

	return nil
}
