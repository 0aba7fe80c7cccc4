// Package sheet serialises spreadsheet worksheets to the CSV layout produced by the export
// script: one '<sheet>.csv' file per non-empty worksheet, packed into a zip archive.
package sheet

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"time"
)

type Sheet struct {
	Name string
	Rows [][]string
}

// Empty returns true if the worksheet has no non-blank cells.
func (s Sheet) Empty() bool {
	for _, row := range s.Rows {
		for _, v := range row {
			if v != "" {
				return false
			}
		}
	}

	return true
}

// Filename is the name of the CSV file for the worksheet in the export archive.
func (s Sheet) Filename() string {
	return s.Name + ".csv"
}

// CSV formats the rows as comma separated values. Rows are padded to the width of the widest
// row and separated by a single '\n', with no trailing newline.
func CSV(rows [][]string) string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}

		for j := 0; j < width; j++ {
			if j > 0 {
				b.WriteString(",")
			}

			if j < len(row) {
				b.WriteString(Escape(row[j]))
			}
		}
	}

	return b.String()
}

// Escape quotes a field that contains a comma, a double quote or a line break, doubling any
// embedded double quotes.
func Escape(v string) string {
	if strings.ContainsAny(v, ",\"\r\n") {
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}

	return v
}

// Zip writes the non-empty worksheets to w as a zip archive and returns the names of the files
// in the archive.
func Zip(w io.Writer, sheets []Sheet) ([]string, error) {
	files := []string{}
	zw := zip.NewWriter(w)
	now := time.Now()

	for _, s := range sheets {
		if s.Empty() {
			continue
		}

		header := zip.FileHeader{
			Name:     s.Filename(),
			Method:   zip.Deflate,
			Modified: now,
		}

		f, err := zw.CreateHeader(&header)
		if err != nil {
			return nil, fmt.Errorf("error adding %v to archive (%w)", s.Filename(), err)
		}

		if _, err := io.WriteString(f, CSV(s.Rows)); err != nil {
			return nil, fmt.Errorf("error writing %v to archive (%w)", s.Filename(), err)
		}

		files = append(files, s.Filename())
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	return files, nil
}
