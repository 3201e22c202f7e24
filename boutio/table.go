package boutio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/chipper/analysis"
)

// IndexColumn heads the file name column of the statistics table
const IndexColumn = "FileName"

// DefaultTableName returns AnalysisOutput_<timestamp> inside dir
func DefaultTableName(dir string, now time.Time) string {
	return filepath.Join(dir, "AnalysisOutput_"+now.Format("20060102_T150405"))
}

// TablePath returns the file the table is written to: path itself when it
// already ends in "txt", otherwise path with ".txt" appended
func TablePath(path string) string {
	if strings.HasSuffix(path, "txt") {
		return path
	}
	return path + ".txt"
}

// AppendTable writes records as tab separated rows. A new table starts with a
// header row; rows are appended to an existing one without a header. It
// returns the path written.
func AppendTable(path string, records []*analysis.Record) (string, error) {
	saveName := TablePath(path)

	fresh := !exists(saveName) && !exists(path)
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if fresh {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	f, err := os.OpenFile(saveName, flags, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open statistics table: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if fresh {
		header := append([]string{IndexColumn}, analysis.ColumnNames()...)
		if err := w.Write(header); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write table header: %w", err)
		}
	}

	for _, rec := range records {
		cols := rec.Columns()
		row := make([]string, 0, len(cols)+1)
		row = append(row, rec.FileName)
		for _, c := range cols {
			row = append(row, c.Value)
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write table row for %s: %w", rec.FileName, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to flush statistics table: %w", err)
	}
	return saveName, f.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
