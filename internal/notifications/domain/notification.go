package domain

import (
	"fmt"
	"time"

	"github.com/asyncorders/asyncorders/internal/contracts"
)

type MsgType string

const (
	MsgTypeEmail MsgType = "EMAIL"
	MsgTypeSMS   MsgType = "SMS"
	MsgTypePush  MsgType = "PUSH"
)

type Contact struct {
	Email string
	Phone string
}

type Message struct {
	Subject string
	Content string
}

// OrderNotification is the persisted delivery record. IsSent is true only
// after the transport accepted the message; a failed send leaves the row in
// place as an audit of the attempt, with SentAt unset.
type OrderNotification struct {
	ID          int
	OrderID     int
	MsgType     MsgType
	Contact     Contact
	Message     Message
	CreatedAt   time.Time
	OrderStatus contracts.OrderStatus
	IsSent      bool
	SentAt      *time.Time
}

// BuildEmail renders the email notification for a terminal status change.
// Callers must have filtered to terminal statuses already; anything else is a
// contract violation and returns an error.
func BuildEmail(event contracts.OrderStatusChanged, now time.Time) (OrderNotification, error) {
	subject, content, err := render(event)
	if err != nil {
		return OrderNotification{}, err
	}
	return OrderNotification{
		OrderID: event.OrderID,
		MsgType: MsgTypeEmail,
		Contact: Contact{
			Email: event.CustomerEmail,
			Phone: event.CustomerPhone,
		},
		Message: Message{
			Subject: subject,
			Content: content,
		},
		CreatedAt:   now,
		OrderStatus: event.Status,
	}, nil
}

func render(event contracts.OrderStatusChanged) (subject, content string, err error) {
	date := event.OccurredAt.Format(time.RFC3339)

	switch event.Status {
	case contracts.StatusConfirmed:
		subject = "Order Confirmed :)"
		content = fmt.Sprintf(`Dear Customer,

Great news! Your order #%d has been confirmed and is being processed.

Order Details:
- Order ID: %d
- Status: CONFIRMED
- Date: %s

Thank you for your purchase!

Best regards,
AsyncOrders Team`, event.OrderID, event.OrderID, date)

	case contracts.StatusRejected:
		subject = "Order Rejected :("
		content = fmt.Sprintf(`Dear Customer,

Unfortunately, your order #%d could not be processed.

Order Details:
- Order ID: %d
- Status: REJECTED
- Previous Status: %s
- Date: %s

Possible reasons:
- Product out of stock
- Inventory reservation failed

If you have any questions, please contact our support team.

Best regards,
AsyncOrders Team`, event.OrderID, event.OrderID, event.PrevStatus, date)

	default:
		return "", "", fmt.Errorf("unexpected status : %s", event.Status)
	}
	return subject, content, nil
}
