package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"ms-boxoffice/internal/models"

	"github.com/skip2/go-qrcode"
)

type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// TicketQR renders the AES-encrypted ticket payload as a QR PNG.
func (g *Generator) TicketQR(ticket models.Ticket) ([]byte, error) {
	payload := struct {
		TokenID   int64  `json:"token_id"`
		EventID   int64  `json:"event_id"`
		TierID    int64  `json:"tier_id"`
		SeatIndex *int   `json:"seat_index,omitempty"`
		Owner     string `json:"owner"`
	}{
		TokenID:   ticket.TokenID,
		EventID:   ticket.EventID,
		TierID:    ticket.TierID,
		SeatIndex: ticket.SeatIndex,
		Owner:     ticket.Owner,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
