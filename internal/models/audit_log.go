package models

// AuditLog records a write action performed through the API.
type AuditLog struct {
	Base
	UserID     string `gorm:"type:uuid;not null;index" json:"user_id"`
	Action     string `gorm:"not null" json:"action"`
	ObjectType string `gorm:"not null" json:"object_type"`
	ObjectID   string `json:"object_id"`
	IPAddress  string `json:"ip_address"`
	Metadata   string `gorm:"type:text" json:"metadata,omitempty"`
}
