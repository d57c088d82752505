package services

import (
	"fmt"

	"threatconsole/internal/database"
	"threatconsole/internal/models"
)

// Actions recorded in the console's own audit trail.
const (
	AuditLogin          = "login"
	AuditLoginFailed    = "login_failed"
	AuditLogout         = "logout"
	AuditBlockUser      = "block_user"
	AuditUnblockUser    = "unblock_user"
	AuditRegisterUser   = "register_user"
	AuditWeeklySummary  = "send_weekly_summary"
	AuditTriggerWeekly  = "trigger_weekly_analysis"
	AuditAnalyzeUser    = "analyze_user"
	AuditDownload       = "download"
	AuditDownloadDenied = "download_blocked"
	AuditExport         = "audit_export"
)

type AuditService struct {
	db *database.DB
}

func NewAuditService(db *database.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) LogAction(actor, action, details, ipAddress string) error {
	if actor == "" {
		actor = "anonymous"
	}
	_, err := s.db.Exec(
		"INSERT INTO audit_logs (actor, action, details, ip_address) VALUES (?, ?, ?, ?)",
		actor, action, details, ipAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}

func (s *AuditService) GetAuditLogs(limit int) ([]models.AuditLog, error) {
	rows, err := s.db.Query(`
		SELECT id, actor, action, COALESCE(details, ''), COALESCE(ip_address, ''), created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var log models.AuditLog
		if err := rows.Scan(&log.ID, &log.Actor, &log.Action, &log.Details, &log.IPAddress, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *AuditService) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM audit_logs").Scan(&count)
	return count, err
}
