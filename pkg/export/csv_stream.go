package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVStream writes dataset rows to an io.Writer one record at a time,
// allowing large exports to be streamed instead of buffered.
type CSVStream struct {
	writer  *csv.Writer
	headers []string
}

// NewCSVStream creates a stream and immediately emits the header row.
func NewCSVStream(w io.Writer, headers []string) (*CSVStream, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv headers: %w", err)
	}
	return &CSVStream{writer: writer, headers: headers}, nil
}

// WriteRow emits a single record ordered by the stream headers.
func (s *CSVStream) WriteRow(row map[string]string) error {
	record := make([]string, len(s.headers))
	for i, header := range s.headers {
		record[i] = row[header]
	}
	if err := s.writer.Write(record); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	s.writer.Flush()
	return s.writer.Error()
}
