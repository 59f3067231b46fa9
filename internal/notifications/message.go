package notifications

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
)

const (
	guestName  = "Walk-in"
	guestEmail = "N/A"
)

// AlertItem is one line of an order alert.
type AlertItem struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// OrderAlert is the channel-independent content of an order notification.
type OrderAlert struct {
	OrderID       string
	CustomerName  string
	CustomerEmail string
	Phone         string
	Address       string
	Total         decimal.Decimal
	Items         []AlertItem
	PlacedAt      time.Time
}

// NewOrderAlert builds an alert from a stored order. A missing account is
// rendered with the walk-in placeholders.
func NewOrderAlert(order *models.Order) OrderAlert {
	alert := OrderAlert{
		CustomerName:  guestName,
		CustomerEmail: guestEmail,
	}
	if order == nil {
		return alert
	}
	alert.OrderID = order.ID.String()
	alert.Phone = order.Phone
	alert.Address = order.Address
	alert.Total = order.TotalAmount
	alert.PlacedAt = order.CreatedAt
	if order.User != nil {
		if name := strings.TrimSpace(order.User.Name); name != "" {
			alert.CustomerName = name
		}
		if email := strings.TrimSpace(order.User.Email); email != "" {
			alert.CustomerEmail = email
		}
	}
	alert.Items = make([]AlertItem, 0, len(order.Items))
	for _, item := range order.Items {
		alert.Items = append(alert.Items, AlertItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return alert
}

// ShortID is the last six characters of the order id, upper-cased.
func (a OrderAlert) ShortID() string {
	id := strings.ReplaceAll(a.OrderID, "-", "")
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return strings.ToUpper(id)
}

// Subject is the email subject line.
func (a OrderAlert) Subject() string {
	return fmt.Sprintf("NEW ORDER RECEIVED: #%s", a.ShortID())
}

// PlainText renders the alert for the log and chat channels.
func (a OrderAlert) PlainText() string {
	var b strings.Builder
	b.WriteString("NEW ORDER RECEIVED\n\n")
	fmt.Fprintf(&b, "Order ID: %s\n", a.OrderID)
	fmt.Fprintf(&b, "Customer: %s (%s)\n", a.CustomerName, a.CustomerEmail)
	fmt.Fprintf(&b, "Phone: %s\n", a.Phone)
	fmt.Fprintf(&b, "Address: %s\n", a.Address)
	fmt.Fprintf(&b, "Total: Rs. %s\n\n", a.Total.StringFixed(2))
	b.WriteString("Items:\n")
	for _, item := range a.Items {
		fmt.Fprintf(&b, "- %s x %d\n", item.Name, item.Quantity)
	}
	return b.String()
}

// HTML renders the alert for email. All user-supplied values are escaped.
func (a OrderAlert) HTML() string {
	var b strings.Builder
	b.WriteString("<h2>New Order Received</h2>")
	fmt.Fprintf(&b, "<p><strong>Order ID:</strong> %s</p>", html.EscapeString(a.OrderID))
	fmt.Fprintf(&b, "<p><strong>Customer:</strong> %s (%s)</p>", html.EscapeString(a.CustomerName), html.EscapeString(a.CustomerEmail))
	fmt.Fprintf(&b, "<p><strong>Phone:</strong> %s</p>", html.EscapeString(a.Phone))
	fmt.Fprintf(&b, "<p><strong>Address:</strong> %s</p>", html.EscapeString(a.Address))
	fmt.Fprintf(&b, "<p><strong>Total:</strong> Rs. %s</p>", a.Total.StringFixed(2))
	b.WriteString("<h3>Items</h3><ul>")
	for _, item := range a.Items {
		fmt.Fprintf(&b, "<li>%s x %d</li>", html.EscapeString(item.Name), item.Quantity)
	}
	b.WriteString("</ul>")
	return b.String()
}
