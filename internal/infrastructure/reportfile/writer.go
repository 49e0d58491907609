// Package reportfile persists the run artifacts: the sync report, the
// anomaly report, the SKU mismatch report and the forensic details
// JSON. A completed run always produces all four, even when errors were
// recorded along the way, so a human can reconcile the remainder.
package reportfile

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/traysync/backend/internal/usecase"
)

// Writer writes run artifacts into a directory, stamping file names
// with the report's run timestamp.
type Writer struct {
	dir string
	log *zap.Logger
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, log: logger}
}

// WriteAll writes every artifact. A failure on one artifact does not
// stop the others; all errors are joined and returned together with the
// paths that were written.
func (w *Writer) WriteAll(report *usecase.RunReport) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	stamp := report.Stamp()
	artifacts := []struct {
		name  string
		write func(string) error
	}{
		{fmt.Sprintf("sync_report_%s.csv", stamp), func(p string) error { return w.writeSyncReport(p, report) }},
		{fmt.Sprintf("sync_anomalies_%s.csv", stamp), func(p string) error { return w.writeAnomalyReport(p, report) }},
		{fmt.Sprintf("sync_sku_mismatch_%s.csv", stamp), func(p string) error { return w.writeMismatchReport(p, report) }},
		{fmt.Sprintf("sync_missing_details_%s.json", stamp), func(p string) error { return w.writeDetails(p, report) }},
	}

	var (
		written []string
		errs    []error
	)
	for _, artifact := range artifacts {
		path := filepath.Join(w.dir, artifact.name)
		if err := artifact.write(path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", artifact.name, err))
			w.log.Error("artifact write failed", zap.String("file", artifact.name), zap.Error(err))
			continue
		}
		written = append(written, path)
		w.log.Info("artifact written", zap.String("file", path))
	}
	return written, errors.Join(errs...)
}

// writeSyncReport writes one row per attempted product.
func (w *Writer) writeSyncReport(path string, report *usecase.RunReport) error {
	detailsFile := fmt.Sprintf("sync_missing_details_%s.json", report.Stamp())
	rows := make([][]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		infoLen := 0
		imageCount := 0
		if o.Payload != nil {
			infoLen = len(o.Payload.AdditionalInfo)
			imageCount = len(o.Payload.ImageURLs)
		}
		rows = append(rows, []string{
			usecase.StatusLabel(o),
			o.SKU,
			o.Name,
			o.Reason,
			o.SourceRef,
			strconv.Itoa(infoLen),
			strconv.Itoa(imageCount),
			detailsFile,
		})
	}
	header := []string{"status", "sku", "name", "message", "source_ref", "additional_info_len", "image_count", "details_file"}
	return writeCSV(path, header, rows)
}

// writeAnomalyReport writes one row per audit anomaly. When the run was
// clean it writes a single placeholder row, never an empty file.
func (w *Writer) writeAnomalyReport(path string, report *usecase.RunReport) error {
	anomalies := report.Anomalies()
	rows := make([][]string, 0, len(anomalies))
	for _, a := range anomalies {
		rows = append(rows, []string{
			a.StoreLabel,
			string(a.Type),
			strconv.Itoa(a.Page),
			a.SKU,
			a.Name,
			a.Code,
			a.Detail,
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"ALL", "NO_ANOMALIES", "", "", "", "", "No anomalies detected."})
	}
	return writeCSV(path, []string{"store", "type", "page", "sku", "name", "code", "detail"}, rows)
}

// writeMismatchReport writes one row per divergent match.
func (w *Writer) writeMismatchReport(path string, report *usecase.RunReport) error {
	rows := make([][]string, 0, len(report.Mismatches))
	for _, m := range report.Mismatches {
		rows = append(rows, []string{m.SourceKey, m.TargetKey, m.Product.Name})
	}
	return writeCSV(path, []string{"source_sku_key", "target_sku_key", "name"}, rows)
}

// writeDetails writes the forensic JSON: one object per attempted
// product with the full payload and extracted source record.
func (w *Writer) writeDetails(path string, report *usecase.RunReport) error {
	records := report.Details
	if records == nil {
		records = []usecase.DetailRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
