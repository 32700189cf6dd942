package tenant

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type AccountStatus string

var (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusCancelled AccountStatus = "cancelled"
)

func (s AccountStatus) String() string {
	switch s {
	case StatusActive, StatusSuspended, StatusCancelled:
		return string(s)
	default:
		return ""
	}
}

type SubscriptionType string

var (
	SubscriptionMonthly  SubscriptionType = "monthly"
	SubscriptionYearly   SubscriptionType = "yearly"
	SubscriptionLifetime SubscriptionType = "lifetime"
)

func (s SubscriptionType) String() string {
	switch s {
	case SubscriptionMonthly, SubscriptionYearly, SubscriptionLifetime:
		return string(s)
	default:
		return ""
	}
}

type SubscriptionStatus string

var (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

func (s SubscriptionStatus) String() string {
	switch s {
	case SubscriptionActive, SubscriptionExpired, SubscriptionCancelled, SubscriptionSuspended:
		return string(s)
	default:
		return ""
	}
}

type APIStatus string

var (
	APIActive APIStatus = "active"
	APIPaused APIStatus = "paused"
)

type AuthType string

// HMAC is the only federation auth type currently supported.
var AuthHMAC AuthType = "hmac"

// Tenant is one SaaS client: a licensed website bound to exactly one domain,
// plus the credentials the panel uses to call the client's own API.
type Tenant struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	CompanyName string         `gorm:"column:company_name"`
	Slug        string         `gorm:"column:slug;uniqueIndex"`
	Contact     datatypes.JSON `gorm:"column:contact"`

	WebsiteURL    string `gorm:"column:website_url"`
	WebsiteDomain string `gorm:"column:website_domain;index"` // canonical, no scheme/path

	LicenseKey string        `gorm:"column:license_key;uniqueIndex"`
	Status     AccountStatus `gorm:"column:status"`

	SubscriptionType      SubscriptionType   `gorm:"column:subscription_type"`
	SubscriptionStatus    SubscriptionStatus `gorm:"column:subscription_status"`
	SubscriptionStartDate *time.Time         `gorm:"column:subscription_start_date"`
	// Null means no expiry; only meaningful for lifetime subscriptions.
	SubscriptionEndDate *time.Time `gorm:"column:subscription_end_date"`

	APIBaseURL string     `gorm:"column:api_base_url"`
	AuthType   AuthType   `gorm:"column:auth_type"`
	APIKey     string     `gorm:"column:api_key"`
	APIStatus  APIStatus  `gorm:"column:api_status"`
	LastSeenAt *time.Time `gorm:"column:last_seen_at"`

	LastAccessDate       *time.Time `gorm:"column:last_access_date"`
	LastVerificationDate *time.Time `gorm:"column:last_verification_date"`

	// Append-only free-text audit trail of administrative actions.
	Notes string `gorm:"column:notes"`
}

func (Tenant) TableName() string {
	return "clients"
}

// View is the admin-facing JSON projection. The API key is masked; the full
// value is only ever shown in one-time setup instructions.
type View struct {
	ID                    string             `json:"id"`
	CompanyName           string             `json:"companyName"`
	Slug                  string             `json:"slug"`
	Contact               datatypes.JSON     `json:"contact,omitempty"`
	WebsiteURL            string             `json:"websiteUrl"`
	WebsiteDomain         string             `json:"websiteDomain"`
	LicenseKey            string             `json:"licenseKey"`
	Status                AccountStatus      `json:"status"`
	SubscriptionType      SubscriptionType   `json:"subscriptionType"`
	SubscriptionStatus    SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionStartDate *time.Time         `json:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate   *time.Time         `json:"subscriptionEndDate,omitempty"`
	APIBaseURL            string             `json:"apiBaseUrl,omitempty"`
	AuthType              AuthType           `json:"authType,omitempty"`
	APIKeyMasked          string             `json:"apiKey,omitempty"`
	APIStatus             APIStatus          `json:"apiStatus,omitempty"`
	LastSeenAt            *time.Time         `json:"lastSeenAt,omitempty"`
	LastAccessDate        *time.Time         `json:"lastAccessDate,omitempty"`
	LastVerificationDate  *time.Time         `json:"lastVerificationDate,omitempty"`
	Notes                 string             `json:"notes,omitempty"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

func (m *Tenant) ToView() *View {
	return &View{
		ID:                    m.ID,
		CompanyName:           m.CompanyName,
		Slug:                  m.Slug,
		Contact:               m.Contact,
		WebsiteURL:            m.WebsiteURL,
		WebsiteDomain:         m.WebsiteDomain,
		LicenseKey:            m.LicenseKey,
		Status:                m.Status,
		SubscriptionType:      m.SubscriptionType,
		SubscriptionStatus:    m.SubscriptionStatus,
		SubscriptionStartDate: m.SubscriptionStartDate,
		SubscriptionEndDate:   m.SubscriptionEndDate,
		APIBaseURL:            m.APIBaseURL,
		AuthType:              m.AuthType,
		APIKeyMasked:          MaskAPIKey(m.APIKey),
		APIStatus:             m.APIStatus,
		LastSeenAt:            m.LastSeenAt,
		LastAccessDate:        m.LastAccessDate,
		LastVerificationDate:  m.LastVerificationDate,
		Notes:                 m.Notes,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// MaskAPIKey hides all but the last four characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
