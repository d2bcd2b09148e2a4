package fetcher

import (
	"path/filepath"
	"strings"
)

// ReadTable reads a bulk export file, dispatching on extension: .xlsx files
// go through the XLSX reader, anything else is treated as CSV. Raw rows are
// returned with header rows included; missing files yield no rows.
func ReadTable(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, XLSXOptions{})
	}
	return ReadCSVFile(path)
}
