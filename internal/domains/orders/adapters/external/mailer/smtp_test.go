package mailer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

func TestNewSMTPMailer_RequiresCredentials(t *testing.T) {
	_, err := NewSMTPMailer(Config{Host: "smtp.example.com"})
	require.Error(t, err)
}

func TestSMTPMailer_RendersConfirmation(t *testing.T) {
	m, err := NewSMTPMailer(Config{Host: "smtp.example.com", Username: "shop@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, 465, m.cfg.Port)

	msg, err := m.buildMessage(ports.Confirmation{
		OrderID:       "0123456789abcdef",
		Email:         "buyer@example.com",
		CustomerName:  "Ana <script>",
		PaymentMethod: "cod",
		Items:         []ports.ConfirmationItem{{Name: "Lamp", Quantity: 2, UnitPrice: "150000", Discount: 10}},
		Total:         "300000",
		PlacedAt:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Order confirmation #89ABCDEF")
	assert.Contains(t, raw, "buyer@example.com")
}

func TestSMTPMailer_RejectsBadRecipient(t *testing.T) {
	m, err := NewSMTPMailer(Config{Host: "smtp.example.com", Username: "shop@example.com", Password: "secret"})
	require.NoError(t, err)
	_, err = m.buildMessage(ports.Confirmation{OrderID: "o", Email: "not an address"})
	require.Error(t, err)
}

func TestLogMailer_NeverFails(t *testing.T) {
	assert.NoError(t, NewLogMailer(nil).SendConfirmation(context.Background(), ports.Confirmation{OrderID: "o"}))
}
