package models

import "github.com/google/uuid"

// Display types a message can be rendered as.
const (
	DisplayBanner     = "banner"
	DisplayPopup      = "popup"
	DisplayFullscreen = "fullscreen"
	DisplayModal      = "modal"
	DisplayTicker     = "ticker"
)

// Site is a registered website whose embed widget shows the latest message.
type Site struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	Name           string    `json:"name"`
	Domain         string    `json:"domain"`

	// Pinned is the authoritative display switch: false means the widget
	// must show nothing, regardless of what messages exist.
	Pinned bool `gorm:"default:true" json:"pinned"`

	// Display defaults applied by the widget.
	DisplayType  string `gorm:"default:'banner'" json:"display_type"`
	BgColor      string `gorm:"default:'#1a1a2e'" json:"bg_color"`
	TextColor    string `gorm:"default:'#ffffff'" json:"text_color"`
	Font         string `gorm:"default:'sans-serif'" json:"font"`
	DismissAfter int    `json:"dismiss_after"`

	Phones   []PhoneNumber `json:"phones,omitempty"`
	Messages []Message     `json:"messages,omitempty"`
}
