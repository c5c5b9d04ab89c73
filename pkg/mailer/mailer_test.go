package mailer

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestMailer(t *testing.T, cfg Config, sendErr error) (*Mailer, *capturedMail) {
	t.Helper()
	m, err := New(cfg)
	require.NoError(t, err)
	got := &capturedMail{}
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*got = capturedMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)}
		return sendErr
	}
	return m, got
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Port: "2525", From: "shop@example.com"})
	assert.Error(t, err)

	_, err = New(Config{Host: "smtp.example.com", Port: "2525"})
	assert.Error(t, err)
}

func TestMailer_Send(t *testing.T) {
	m, got := newTestMailer(t, Config{Host: "smtp.example.com", Port: "2525", User: "u", Pass: "p", From: "shop@example.com"}, nil)

	require.NoError(t, m.Send("buyer@example.com", "Hello", "plain body"))

	assert.Equal(t, "smtp.example.com:2525", got.addr)
	assert.NotNil(t, got.auth)
	assert.Equal(t, "shop@example.com", got.from)
	assert.Equal(t, []string{"buyer@example.com"}, got.to)
	assert.Contains(t, got.msg, "Subject: Hello\r\n")
	assert.Contains(t, got.msg, "Content-Type: text/plain; charset=UTF-8")
}

func TestMailer_Send_NoAuthWithoutUser(t *testing.T) {
	m, got := newTestMailer(t, Config{Host: "localhost", Port: "1025", From: "shop@example.com"}, nil)

	require.NoError(t, m.Send("buyer@example.com", "Hi", "x"))

	assert.Nil(t, got.auth)
}

func TestMailer_Send_Errors(t *testing.T) {
	m, _ := newTestMailer(t, Config{Host: "h", Port: "1", From: "f@example.com"}, errors.New("refused"))

	assert.Error(t, m.Send("", "s", "b"))
	assert.Error(t, m.Send("a@example.com", "", "b"))
	err := m.Send("a@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestOrderConfirmation_Body(t *testing.T) {
	c := OrderConfirmation{
		OrderID: "ORD-1", Amount: 11800, Currency: "INR", PaymentMethod: "cod", Status: "pending",
		PlacedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Lines:    []OrderLine{{Name: "Watch <Pro>", Quantity: 2, Price: 5000}},
	}

	body := c.Body()

	assert.Contains(t, body, "ORD-1")
	assert.Contains(t, body, "Watch &lt;Pro&gt;")
	assert.Contains(t, body, "INR 11800.00")
	assert.True(t, strings.HasPrefix(string(BuildMessage("a", "b", c.Subject(), body)), "To: a\r\n"))
	assert.Contains(t, string(BuildMessage("a", "b", c.Subject(), body)), "text/html")
}
