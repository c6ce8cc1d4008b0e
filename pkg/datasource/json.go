package datasource

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/morandi/jstore/pkg/dao"
)

// Decoder streams rows out of a JSON or JSONL document. JSON input may be
// a single object, a top-level array of objects, or a concatenated stream
// of objects.
type Decoder struct {
	jsonl bool

	scanner   *bufio.Scanner
	bufReader *bufio.Reader
	decoder   *json.Decoder
	closer    io.Closer

	started bool
	inArray bool
}

// NewDecoder opens a decoder for the given source.
// Special cases: "" or "-" reads stdin; a string starting with '{' or '['
// is treated as inline JSON.
func NewDecoder(source string) (*Decoder, error) {
	if len(source) > 0 && (source[0] == '{' || source[0] == '[') {
		return NewReaderDecoder(strings.NewReader(source), false), nil
	}
	if source == "" || source == "-" {
		return NewReaderDecoder(os.Stdin, false), nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	d := NewReaderDecoder(f, strings.HasSuffix(source, ".jsonl"))
	d.closer = f
	return d, nil
}

// NewReaderDecoder decodes rows from an arbitrary reader.
func NewReaderDecoder(r io.Reader, jsonl bool) *Decoder {
	d := &Decoder{jsonl: jsonl}
	if jsonl {
		d.scanner = bufio.NewScanner(r)
	} else {
		d.bufReader = bufio.NewReader(r)
		d.decoder = json.NewDecoder(d.bufReader)
	}
	return d
}

// Close releases the underlying file, if any.
func (d *Decoder) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// Read returns the next row, or io.EOF when the document is exhausted.
// Malformed input yields a *dao.DecodeError carrying the offending content.
func (d *Decoder) Read() (dao.Row, error) {
	if d.jsonl {
		return d.readLine()
	}
	return d.readStream()
}

func (d *Decoder) readLine() (dao.Row, error) {
	for d.scanner.Scan() {
		line := d.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var row dao.Row
		if err := json.Unmarshal(line, &row); err != nil {
			raw := make([]byte, len(line))
			copy(raw, line)
			return nil, &dao.DecodeError{Raw: raw, Err: err}
		}
		return row, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (d *Decoder) readStream() (dao.Row, error) {
	if !d.started {
		// Peek past leading whitespace to detect a top-level array.
		for {
			b, err := d.bufReader.Peek(1)
			if err != nil {
				if err == io.EOF {
					return nil, io.EOF
				}
				return nil, err
			}
			switch b[0] {
			case ' ', '\n', '\t', '\r':
				d.bufReader.ReadByte()
				continue
			case '[':
				// Enter the array through the decoder so it tracks the
				// element commas and the closing bracket.
				d.inArray = true
				if _, err := d.decoder.Token(); err != nil {
					return nil, &dao.DecodeError{Err: err}
				}
			}
			d.started = true
			break
		}
	}

	if d.inArray && !d.decoder.More() {
		t, err := d.decoder.Token()
		if err != nil {
			return nil, &dao.DecodeError{Err: err}
		}
		if delim, ok := t.(json.Delim); ok && delim == ']' {
			d.inArray = false
			return nil, io.EOF
		}
		return nil, &dao.DecodeError{Err: fmt.Errorf("expected array end, got %v", t)}
	}

	var row dao.Row
	if err := d.decoder.Decode(&row); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &dao.DecodeError{Err: err}
	}
	return row, nil
}

// DecodeFile drains a source into rows. A malformed document yields a
// *dao.DecodeError carrying the offending content.
func DecodeFile(source string) ([]dao.Row, error) {
	d, err := NewDecoder(source)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	var rows []dao.Row
	for {
		row, err := d.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			var derr *dao.DecodeError
			if errors.As(err, &derr) && len(derr.Raw) == 0 {
				derr.Raw = rawContent(source)
			}
			return nil, err
		}
		rows = append(rows, row)
	}
}

// rawContent recovers the offending document for diagnostics. Stdin cannot
// be re-read, so its failures keep an empty payload.
func rawContent(source string) []byte {
	if len(source) > 0 && (source[0] == '{' || source[0] == '[') {
		return []byte(source)
	}
	if source == "" || source == "-" {
		return nil
	}
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil
	}
	return raw
}

// DecodeBytes decodes a serialized document into rows. A malformed
// document yields a *dao.DecodeError carrying the raw input.
func DecodeBytes(raw []byte, jsonl bool) ([]dao.Row, error) {
	d := NewReaderDecoder(bytes.NewReader(raw), jsonl)
	var rows []dao.Row
	for {
		row, err := d.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			var derr *dao.DecodeError
			if errors.As(err, &derr) && len(derr.Raw) == 0 {
				derr.Raw = raw
			}
			return nil, err
		}
		rows = append(rows, row)
	}
}

// WriteFile persists rows as JSONL when the path has a .jsonl extension,
// otherwise as an indented JSON array.
func WriteFile(path string, rows []dao.Row) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if strings.HasSuffix(path, ".jsonl") {
		for _, row := range rows {
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
	} else {
		enc.SetIndent("", "  ")
		if rows == nil {
			rows = []dao.Row{}
		}
		if err := enc.Encode(rows); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
