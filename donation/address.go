package donation

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const msgAddress = "Your wallet address: \n%s"

// Address returns the chat's wallet address and a PNG QR code of it for deposits.
// The QR code is nil if no key is registered or it could not be rendered.
func (s *Service) Address(chatID int64) (string, []byte) {
	record, err := s.keys.GetKey(chatID)
	if err != nil {
		return msgKeyNotSet, nil
	}

	address := record.PublicKey.String()
	png, err := generateQRCode(address)
	if err != nil {
		s.log.WithField("chat_id", chatID).WithError(err).Warn("failed to generate QR code")
		return fmt.Sprintf(msgAddress, address), nil
	}
	return fmt.Sprintf(msgAddress, address), png
}

// generateQRCode generates a PNG QR code of address
func generateQRCode(address string) ([]byte, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}
	return png, nil
}
