// Package fetcher reads bulk export tables from CSV and XLSX files.
package fetcher

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadCSV parses all rows from a CSV stream. Rows may have varying field
// counts; quoting is lenient because report exports are frequently
// hand-edited. A leading UTF-8 or UTF-16 byte-order mark is stripped so the
// first header cell matches its alias.
func ReadCSV(r io.Reader) ([][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		rows = append(rows, record)
	}
}

// ReadCSVFile reads a CSV file from disk. A missing file yields no rows and
// no error: bootstrap exports are optional.
func ReadCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close()

	return ReadCSV(f)
}
