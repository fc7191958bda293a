package handlers

import (
	"encoding/xml"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/services"
)

// WebhookHandler receives inbound SMS deliveries from the gateway.
type WebhookHandler struct {
	inbound *services.InboundService
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(inbound *services.InboundService) *WebhookHandler {
	return &WebhookHandler{inbound: inbound}
}

// Receive handles one form-encoded delivery. Business rejections (quota,
// duplicates) still answer 200 so the gateway does not retry-storm; only a
// malformed payload gets a 4xx, and an unknown sender a 404 with an empty
// reply, leaking nothing.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	delivery := services.Delivery{
		From:       c.FormValue("From"),
		Body:       c.FormValue("Body"),
		MessageSID: c.FormValue("MessageSid"),
	}

	result, err := h.inbound.Handle(delivery)
	switch {
	case errors.Is(err, services.ErrMalformedPayload):
		return fiber.NewError(fiber.StatusBadRequest, "missing or invalid From/Body")
	case errors.Is(err, services.ErrUnknownSender):
		return sendTwiML(c, fiber.StatusNotFound, "")
	case err != nil:
		return err
	}

	return sendTwiML(c, fiber.StatusOK, result.ReplyText)
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

func sendTwiML(c *fiber.Ctx, status int, message string) error {
	body, err := xml.Marshal(twimlResponse{Message: message})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/xml")
	return c.Status(status).SendString(xml.Header + string(body))
}
