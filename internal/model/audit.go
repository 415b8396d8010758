package model

import "time"

// AuditLog is one recorded API request. Caller is the hex address resolved by
// the auth middleware, empty for unauthenticated endpoints.
type AuditLog struct {
	ID            string                 `json:"id" gorm:"primaryKey"`
	Caller        string                 `json:"caller" gorm:"index:idx_audit_caller"`
	Method        string                 `json:"method"`
	Path          string                 `json:"path"`
	IP            string                 `json:"ip"`
	UserAgent     string                 `json:"user_agent"`
	RequestBody   string                 `json:"request_body,omitempty"`
	RequestHeader string                 `json:"request_header,omitempty"`
	StatusCode    int                    `json:"status_code"`
	ResponseBody  string                 `json:"response_body,omitempty"`
	LatencyMs     int64                  `json:"latency_ms"`
	Context       map[string]interface{} `json:"context,omitempty" gorm:"serializer:json"`
	CreatedAt     time.Time              `json:"created_at" gorm:"index:idx_audit_caller"`
}

func (AuditLog) TableName() string { return "audit_logs" }
