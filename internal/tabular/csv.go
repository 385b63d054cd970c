package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// Options configures the CSV reader.
type Options struct {
	Delimiter  rune   // default ','
	Comment    rune   // comment character (0 = none)
	LazyQuotes bool
	Encoding   string // IANA charset name for non-UTF-8 vendor exports (e.g. "windows-1252")
}

// ReadCSV reads a CSV file into a Table. The first row is the header.
func ReadCSV(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return ReadCSVFrom(f, path, opts)
}

// ReadCSVFrom reads CSV data from a reader into a Table.
func ReadCSVFrom(r io.Reader, source string, opts Options) (*Table, error) {
	if opts.Encoding != "" {
		enc, err := htmlindex.Get(opts.Encoding)
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: unsupported charset %q", opts.Encoding)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.Errorf("tabular: %s is empty", source)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: read header of %s", source)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: read row of %s", source)
		}
		rows = append(rows, record)
	}

	return NewTable(source, header, rows), nil
}

// WriteCSV writes a header and rows to a CSV file, creating parent
// directories as needed.
func WriteCSV(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "tabular: mkdir %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "tabular: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "tabular: write header of %s", path)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "tabular: write row of %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "tabular: flush %s", path)
	}
	return f.Close()
}
