package services

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ExportService bundles the console's local records into a tar.gz of CSV
// files.
type ExportService struct {
	audit     *AuditService
	downloads *DownloadService
	now       func() time.Time
}

func NewExportService(audit *AuditService, downloads *DownloadService) *ExportService {
	return &ExportService{audit: audit, downloads: downloads, now: time.Now}
}

func (s *ExportService) FileName() string {
	return "threatconsole-audit-" + s.now().UTC().Format("20060102-150405") + ".tar.gz"
}

// Export writes up to limit audit entries and every download record to w.
func (s *ExportService) Export(w io.Writer, limit int) error {
	logs, err := s.audit.GetAuditLogs(limit)
	if err != nil {
		return err
	}
	downloads, err := s.downloads.ListAll()
	if err != nil {
		return err
	}

	auditRows := [][]string{{"id", "actor", "action", "details", "ip_address", "created_at"}}
	for _, l := range logs {
		auditRows = append(auditRows, []string{
			strconv.FormatInt(l.ID, 10), l.Actor, l.Action, l.Details, l.IPAddress, l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	downloadRows := [][]string{{"id", "actor", "file_name", "file_size", "risk_score", "status", "created_at"}}
	for _, d := range downloads {
		downloadRows = append(downloadRows, []string{
			strconv.FormatInt(d.ID, 10), d.Actor, d.FileName, d.FileSize,
			strconv.FormatFloat(d.RiskScore, 'f', 3, 64), d.Status, d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	gzWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzWriter)

	modTime := s.now()
	for _, f := range []struct {
		name string
		rows [][]string
	}{
		{"audit_logs.csv", auditRows},
		{"downloads.csv", downloadRows},
	} {
		if err := writeCSV(tarWriter, f.name, f.rows, modTime); err != nil {
			return fmt.Errorf("failed to create archive: %w", err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return gzWriter.Close()
}

func writeCSV(tw *tar.Writer, name string, rows [][]string, modTime time.Time) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}

	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(buf.Len()),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := io.Copy(tw, &buf)
	return err
}
