package models

import "github.com/google/uuid"

// Message is one accepted inbound text. Rows are append-only: the widget only
// ever reads the latest one per site, and nothing updates a row after insert.
type Message struct {
	BaseModel
	SiteID  uuid.UUID `gorm:"type:uuid;index" json:"site_id"`
	Content string    `json:"content"`
	Type    string    `gorm:"default:'banner'" json:"type"`

	// GatewayMessageSID is the gateway's delivery identifier. The unique
	// index makes a gateway-level redelivery of the same SMS a no-op.
	GatewayMessageSID *string `gorm:"uniqueIndex" json:"gateway_message_sid,omitempty"`
}
