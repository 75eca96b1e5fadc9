// Package output writes computed series to CSV files and PNG charts
package output

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"ghrepostats/internal/core/series"
	perr "ghrepostats/internal/platform/errors"
)

// TimeLayout is the CSV timestamp format; UTC renders as +00:00
const TimeLayout = "2006-01-02 15:04:05-07:00"

// CSVPath appends .csv when p has no extension
func CSVPath(p string) string {
	if filepath.Ext(p) == "" {
		return p + ".csv"
	}
	return p
}

// EncodeCSV writes one "timestamp,value" row per point, no header
func EncodeCSV(w io.Writer, pts []series.Point) error {
	rows := make([][]string, len(pts))
	for i, p := range pts {
		rows[i] = []string{p.At.Format(TimeLayout), strconv.Itoa(p.Value)}
	}
	return encodeRows(w, rows)
}

// WriteCSV writes pts to path (see CSVPath) and returns the path actually written
func WriteCSV(path string, pts []series.Point) (string, error) {
	path = CSVPath(path)
	return path, writeAtomic(path, func(w io.Writer) error { return EncodeCSV(w, pts) })
}

// WriteRowsCSV writes arbitrary rows, used for non time series output such as dependents
func WriteRowsCSV(path string, rows [][]string) (string, error) {
	path = CSVPath(path)
	return path, writeAtomic(path, func(w io.Writer) error { return encodeRows(w, rows) })
}

func encodeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// writeAtomic writes through a .part file and renames it over path
func writeAtomic(path string, fill func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return perr.Storagef(err, "cannot create directory %s", dir)
		}
	}
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return perr.Storagef(err, "cannot write %s", path)
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return perr.Storagef(err, "cannot write %s", path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return perr.Storagef(err, "cannot write %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return perr.Storagef(err, "cannot write %s", path)
	}
	return nil
}
