package services

import (
	"database/sql"
	"errors"
	"fmt"

	"threatconsole/internal/database"
	"threatconsole/internal/models"
)

var ErrDownloadNotFound = errors.New("download not found")

type DownloadService struct {
	db *database.DB
}

func NewDownloadService(db *database.DB) *DownloadService {
	return &DownloadService{db: db}
}

func (s *DownloadService) Record(actor, fileName, fileSize string, riskScore float64, status string) (*models.Download, error) {
	result, err := s.db.Exec(
		"INSERT INTO downloads (actor, file_name, file_size, risk_score, status) VALUES (?, ?, ?, ?, ?)",
		actor, fileName, fileSize, riskScore, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record download: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read download id: %w", err)
	}
	return s.Get(actor, id)
}

// Get returns one of actor's downloads. Another user's record is reported as
// not found.
func (s *DownloadService) Get(actor string, id int64) (*models.Download, error) {
	var d models.Download
	err := s.db.QueryRow(
		"SELECT id, actor, file_name, COALESCE(file_size, ''), risk_score, status, created_at FROM downloads WHERE id = ? AND actor = ?",
		id, actor,
	).Scan(&d.ID, &d.Actor, &d.FileName, &d.FileSize, &d.RiskScore, &d.Status, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDownloadNotFound
		}
		return nil, fmt.Errorf("failed to get download: %w", err)
	}
	return &d, nil
}

func (s *DownloadService) ListByActor(actor string) ([]models.Download, error) {
	return s.list("WHERE actor = ?", actor)
}

func (s *DownloadService) ListAll() ([]models.Download, error) {
	return s.list("")
}

func (s *DownloadService) list(where string, args ...interface{}) ([]models.Download, error) {
	rows, err := s.db.Query(
		"SELECT id, actor, file_name, COALESCE(file_size, ''), risk_score, status, created_at FROM downloads "+
			where+" ORDER BY created_at DESC, id DESC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	var out []models.Download
	for rows.Next() {
		var d models.Download
		if err := rows.Scan(&d.ID, &d.Actor, &d.FileName, &d.FileSize, &d.RiskScore, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
