package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityLog is one entry from the user API's activity endpoints.
type ActivityLog struct {
	ID             string                 `json:"_id"`
	Timestamp      string                 `json:"timestamp"`
	Action         string                 `json:"action"`
	IPAddress      string                 `json:"ipAddress"`
	UserAgent      string                 `json:"userAgent,omitempty"`
	RiskScore      *float64               `json:"riskScore,omitempty"`
	AdditionalData map[string]interface{} `json:"additionalData,omitempty"`
	Subject        LogSubject             `json:"userId"`
}

// Score is the risk score, or 0 when upstream sent none.
func (l ActivityLog) Score() float64 {
	if l.RiskScore == nil {
		return 0
	}
	return *l.RiskScore
}

func (l ActivityLog) HasScore() bool {
	return l.RiskScore != nil
}

// Time parses the timestamp; ok is false for missing or malformed values.
func (l ActivityLog) Time() (time.Time, bool) {
	return ParseTimestamp(l.Timestamp)
}

// ParseTimestamp accepts the RFC 3339 forms the upstream services emit.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LogSubject is the userId field of a log: either a bare id or the user
// document the API populated in its place. Any other scalar is kept as raw
// text in ID.
type LogSubject struct {
	ID      string
	Summary *UserSummary
}

func (s LogSubject) Embedded() bool {
	return s.Summary != nil
}

func (s *LogSubject) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = LogSubject{}
	case b[0] == '"':
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return fmt.Errorf("log subject: %w", err)
		}
		*s = LogSubject{ID: id}
	case b[0] == '{':
		var sum UserSummary
		if err := json.Unmarshal(b, &sum); err != nil {
			return fmt.Errorf("log subject: %w", err)
		}
		*s = LogSubject{ID: sum.ID, Summary: &sum}
	default:
		*s = LogSubject{ID: string(b)}
	}
	return nil
}

func (s LogSubject) MarshalJSON() ([]byte, error) {
	if s.Summary != nil {
		return json.Marshal(s.Summary)
	}
	if s.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s.ID)
}
