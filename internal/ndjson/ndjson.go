// Package ndjson reads and writes newline-delimited JSON, the framing both
// provider CLIs use on their stdio transports.
package ndjson

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// Reader decodes one JSON document per line. Lines that are not valid JSON
// objects are surfaced as raw bytes so callers can decide how to log them.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r. Lines of any length are supported.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadLine returns the next line with the trailing newline removed. Returns
// io.EOF when the stream ends.
func (r *Reader) ReadLine() ([]byte, error) {
	line, err := r.r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return line, nil
		}
		return nil, err
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line, nil
}

// ReadObject returns the next line decoded as a JSON object. Non-object lines
// yield (nil, raw, nil) so the caller can log and skip them.
func (r *Reader) ReadObject() (map[string]interface{}, []byte, error) {
	for {
		line, err := r.ReadLine()
		if err != nil {
			return nil, nil, err
		}
		if len(line) == 0 {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, line, nil
		}
		return obj, line, nil
	}
}

// Writer encodes one JSON document per line. Safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write encodes v followed by a newline.
func (w *Writer) Write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}
