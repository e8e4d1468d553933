package checkout

import (
	"encoding/json"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// Confirmation is what the purchase QR code encodes. Items are the staged
// items exactly as they were sent.
type Confirmation struct {
	OrderID string             `json:"orderId"`
	EventID string             `json:"eventId"`
	Items   []domain.OrderItem `json:"items"`
	TS      int64              `json:"ts"`
}

func (c Confirmation) Payload() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// QRCode renders the payload as a PNG.
func (c Confirmation) QRCode() ([]byte, error) {
	payload, err := c.Payload()
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(payload, qrcode.Medium, qrSize)
}
