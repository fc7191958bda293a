package services

import "log"

// Notifier sends best-effort confirmation and rejection texts back to the
// sender. It deliberately returns nothing: by the time a notification goes
// out, the message (or its rejection) is already committed, and a gateway
// failure must not change that.
type Notifier struct {
	gateway SMSGateway
}

// NewNotifier constructs a Notifier.
func NewNotifier(gateway SMSGateway) *Notifier {
	return &Notifier{gateway: gateway}
}

// Notify fires an SMS at the phone and swallows any failure.
func (n *Notifier) Notify(phone, text string) {
	if err := n.gateway.SendSMS(phone, text); err != nil {
		log.Printf("[notify] send to %s failed: %v", phone, err)
	}
}
