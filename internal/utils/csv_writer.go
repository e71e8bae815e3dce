package utils

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"form95/internal/logger"
)

const csvBufferSize = 64 * 1024

// WriteCSV writes headers followed by rows. Cancellation is checked every
// thousand rows.
func WriteCSV(ctx context.Context, w io.Writer, headers []string, rows [][]string) error {
	buffered := bufio.NewWriterSize(w, csvBufferSize)
	csvWriter := csv.NewWriter(buffered)

	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range rows {
		if i%1000 == 0 && ctx.Err() != nil {
			return fmt.Errorf("csv export cancelled: %w", ctx.Err())
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return buffered.Flush()
}

// WriteCSVFile writes to a temporary file next to path and renames it into
// place, so readers never see a partial export.
func WriteCSVFile(ctx context.Context, path string, headers []string, rows [][]string) error {
	log := logger.New("utils").File("csv_writer").Function("WriteCSVFile")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return log.Err("failed to create export directory", err, "path", path)
	}

	file, err := os.CreateTemp(filepath.Dir(path), ".export-*.csv")
	if err != nil {
		return log.Err("failed to create temp export file", err, "path", path)
	}
	tempPath := file.Name()
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove temp export file", "path", tempPath, "error", err)
		}
	}()

	if err := WriteCSV(ctx, file, headers, rows); err != nil {
		_ = file.Close()
		return log.Err("failed to write export", err, "path", path)
	}
	if err := file.Close(); err != nil {
		return log.Err("failed to close export file", err, "path", path)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return log.Err("failed to move export into place", err, "path", path)
	}

	log.Info("export written", "path", path, "rows", len(rows))
	return nil
}
