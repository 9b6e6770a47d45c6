package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// JSONLWriter writes newline-delimited JSON (JSONL), one item per line as
// soon as it is written.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Write writes a single item as a JSON line.
func (w *JSONLWriter) Write(data any) error {
	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes multiple items as JSON lines.
func (w *JSONLWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error { return w.w.Flush() }

// Close flushes the writer.
func (w *JSONLWriter) Close() error { return w.Flush() }

// Liner is implemented by records with a one-line plain text rendering.
type Liner interface {
	Line() string
}

// TextWriter writes one line per item: Line() for a Liner, fmt's default
// formatting otherwise.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter creates a plain text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// Write writes a single item as a line.
func (w *TextWriter) Write(data any) error {
	var line string
	if l, ok := data.(Liner); ok {
		line = l.Line()
	} else {
		line = fmt.Sprint(data)
	}
	if _, err := w.w.WriteString(line); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes multiple items, one per line.
func (w *TextWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *TextWriter) Flush() error { return w.w.Flush() }

// Close flushes the writer.
func (w *TextWriter) Close() error { return w.Flush() }
