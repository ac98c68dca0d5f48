package models

// AuditLog records bulk or destructive user operations.
type AuditLog struct {
	Base
	UserScope    string `gorm:"not null;index" json:"-"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
