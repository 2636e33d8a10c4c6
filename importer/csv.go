package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrMissingHeader = errors.New("csv file has no header row")

// rowReader yields CSV rows keyed by header name.
type rowReader struct {
	reader  *csv.Reader
	headers []string
	line    int
}

// newRowReader strips a UTF-8 BOM and reads the header row.
func newRowReader(r io.Reader) (*rowReader, error) {
	buf := bufio.NewReader(r)
	if bom, err := buf.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	reader := csv.NewReader(buf)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}
	return &rowReader{reader: reader, headers: headers, line: 1}, nil
}

// next returns the following row, or io.EOF.
func (r *rowReader) next() (map[string]string, error) {
	record, err := r.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	r.line++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", r.line, err)
	}
	row := make(map[string]string, len(r.headers))
	for i, h := range r.headers {
		if i < len(record) {
			row[h] = strings.TrimSpace(record[i])
		}
	}
	return row, nil
}
