package models

import "time"

// DownloadCheck is the verdict from GET /download-files.
type DownloadCheck struct {
	RiskScore float64 `json:"riskScore"`
	Message   string  `json:"message,omitempty"`
}

const (
	DownloadCompleted = "completed"
	DownloadBlocked   = "blocked"
)

// Download is a file download made through the console, kept locally.
type Download struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	FileName  string    `json:"file_name"`
	FileSize  string    `json:"file_size"`
	RiskScore float64   `json:"risk_score"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLog records an action taken through the console.
type AuditLog struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}
