package output

import (
	"bufio"
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// bufferedWriter collects items and encodes them on Flush: a single item
// bare, several as one array. Flushing twice writes once.
type bufferedWriter struct {
	w       *bufio.Writer
	items   []any
	encode  func(w io.Writer, v any) error
	flushed bool
}

func newBufferedWriter(w io.Writer, encode func(io.Writer, any) error) bufferedWriter {
	return bufferedWriter{
		w:      bufio.NewWriter(w),
		items:  make([]any, 0),
		encode: encode,
	}
}

// Write buffers a single item.
func (b *bufferedWriter) Write(data any) error {
	b.items = append(b.items, data)
	return nil
}

// WriteAll buffers multiple items.
func (b *bufferedWriter) WriteAll(data []any) error {
	b.items = append(b.items, data...)
	return nil
}

// Flush encodes the buffered items.
func (b *bufferedWriter) Flush() error {
	if b.flushed {
		return b.w.Flush()
	}
	b.flushed = true

	var v any = b.items
	if len(b.items) == 1 {
		v = b.items[0]
	}
	if err := b.encode(b.w, v); err != nil {
		return err
	}
	return b.w.Flush()
}

// Close flushes the writer.
func (b *bufferedWriter) Close() error {
	return b.Flush()
}

// JSONWriter writes JSON output.
type JSONWriter struct {
	bufferedWriter
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool) *JSONWriter {
	return &JSONWriter{newBufferedWriter(w, func(out io.Writer, v any) error {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		if pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	})}
}

// YAMLWriter writes YAML output.
type YAMLWriter struct {
	bufferedWriter
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{newBufferedWriter(w, func(out io.Writer, v any) error {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	})}
}
