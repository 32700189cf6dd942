package license

import (
	"time"
)

type VerificationStatus string

var (
	VerificationValid     VerificationStatus = "valid"
	VerificationInvalid   VerificationStatus = "invalid"
	VerificationExpired   VerificationStatus = "expired"
	VerificationSuspended VerificationStatus = "suspended"
)

func (s VerificationStatus) String() string {
	switch s {
	case VerificationValid, VerificationInvalid, VerificationExpired, VerificationSuspended:
		return string(s)
	default:
		return ""
	}
}

// unknownClientID marks log entries whose license key matched no client.
const unknownClientID = "unknown"

// VerificationLog is one append-only row per full verification attempt.
// The lightweight check endpoint does not write here.
type VerificationLog struct {
	ID             string             `gorm:"column:id;primaryKey"`
	ClientID       string             `gorm:"column:client_id;index"`
	LicenseKey     string             `gorm:"column:license_key;index"`
	Domain         string             `gorm:"column:domain"`
	IPAddress      string             `gorm:"column:ip_address"`
	UserAgent      string             `gorm:"column:user_agent"`
	Status         VerificationStatus `gorm:"column:status"`
	ErrorMessage   string             `gorm:"column:error_message"`
	ResponseTimeMs int64              `gorm:"column:response_time_ms"`
	CreatedAt      time.Time          `gorm:"column:created_at;index"`
}

func (VerificationLog) TableName() string {
	return "verification_logs"
}

// ClientInfo is the minimal projection returned to a verified website.
type ClientInfo struct {
	ID                  string     `json:"id"`
	CompanyName         string     `json:"companyName"`
	SubscriptionType    string     `json:"subscriptionType"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate"`
}
