package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/services"
)

// WidgetHandler serves the embed script's polling endpoint.
type WidgetHandler struct {
	sites    services.SiteStore
	messages services.MessageStore
}

// NewWidgetHandler constructs a WidgetHandler.
func NewWidgetHandler(sites services.SiteStore, messages services.MessageStore) *WidgetHandler {
	return &WidgetHandler{sites: sites, messages: messages}
}

// Current returns the site's display intent: the latest message merged with
// the site's display defaults. pinned=false is authoritative; the widget must
// remove anything it shows, whatever the content field says. Responses are
// never cacheable, so each poll sees the latest persisted state.
func (h *WidgetHandler) Current(c *fiber.Ctx) error {
	siteID, err := uuid.Parse(c.Params("siteID"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid site id")
	}

	site, err := h.sites.GetByID(siteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "site not found")
		}
		return err
	}

	c.Set(fiber.HeaderCacheControl, "no-store, must-revalidate")

	msg, err := h.messages.LatestBySite(site.ID)
	if err != nil {
		return err
	}

	content := ""
	msgType := site.DisplayType
	if msg != nil {
		content = msg.Content
		msgType = msg.Type
	}

	return c.JSON(fiber.Map{
		"content":       content,
		"type":          msgType,
		"bg_color":      site.BgColor,
		"text_color":    site.TextColor,
		"font":          site.Font,
		"dismiss_after": site.DismissAfter,
		"pinned":        site.Pinned,
	})
}
