package mailer

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// OrderLine is one row of an order confirmation.
type OrderLine struct {
	Name     string
	Quantity int
	Price    float64
}

// OrderConfirmation is the content of the mail sent after checkout.
type OrderConfirmation struct {
	OrderID       string
	Amount        float64
	Currency      string
	PaymentMethod string
	Status        string
	PlacedAt      time.Time
	Lines         []OrderLine
}

// Subject is the confirmation subject line.
func (c OrderConfirmation) Subject() string {
	return fmt.Sprintf("Your order %s is confirmed", c.OrderID)
}

// Body renders the confirmation as HTML.
func (c OrderConfirmation) Body() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>Thank you for your order <b>%s</b> placed on %s.</p>",
		html.EscapeString(c.OrderID), c.PlacedAt.Format("02 Jan 2006"))
	b.WriteString("<table>")
	for _, l := range c.Lines {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>x%d</td><td>%.2f</td></tr>", html.EscapeString(l.Name), l.Quantity, l.Price)
	}
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p>Total: %s %.2f (%s, %s)</p>", html.EscapeString(c.Currency), c.Amount,
		html.EscapeString(c.PaymentMethod), html.EscapeString(c.Status))
	b.WriteString("</body></html>")
	return b.String()
}

// SendOrderConfirmation mails c to recipient.
func (m *Mailer) SendOrderConfirmation(recipient string, c OrderConfirmation) error {
	return m.Send(recipient, c.Subject(), c.Body())
}
