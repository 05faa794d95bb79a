package conversation

import "time"

// InboundMessage is one user message as received from the WhatsApp webhook.
// It is the unit of work flowing through the queue.
type InboundMessage struct {
	OrgID      string    `json:"org_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Body       string    `json:"body"`
	MessageSID string    `json:"message_sid,omitempty"`
	MediaURL   string    `json:"media_url,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
