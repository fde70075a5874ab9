package output

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// JSONLWriter writes one Record per line as JSON. It is safe for
// concurrent use.
type JSONLWriter struct {
	w  *bufio.Writer
	mu sync.Mutex
}

// NewJSONLWriter wraps an io.Writer with buffering.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Write writes a single record as a JSON line.
func (j *JSONLWriter) Write(r Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	enc := json.NewEncoder(j.w)
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// Close flushes the buffer; keep the signature similar to io.Closer.
func (j *JSONLWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.w.Flush()
}

// WriteJSONL writes each record as a JSON line to w.
func WriteJSONL(w io.Writer, records []Record) error {
	jw := NewJSONLWriter(w)
	for _, rec := range records {
		if err := jw.Write(rec); err != nil {
			return err
		}
	}
	return jw.Close()
}
