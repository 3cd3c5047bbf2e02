package email

import (
	"fmt"
	"net/smtp"

	"github.com/shopspring/decimal"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewService creates a new email service. username may be empty for relays
// that accept unauthenticated mail (MailHog in local development).
func NewService(host, port, from, username, password string) *Service {
	s := &Service{
		host: host,
		port: port,
		from: from,
		send: smtp.SendMail,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

// SendShipmentNotice tells the customer their order has been dispatched.
func (s *Service) SendShipmentNotice(to, customerName, orderNumber, trackingNumber string, items []OrderItem) error {
	subject := fmt.Sprintf("【発送完了】ご注文の商品を発送しました（注文番号: %s）", orderNumber)
	body := BuildShipmentBody(customerName, orderNumber, trackingNumber, items)
	return s.deliver(to, subject, body)
}

// SendCancellationNotice tells the customer their order was cancelled.
func (s *Service) SendCancellationNotice(to, customerName, orderNumber, reason string, total decimal.Decimal, refund bool, items []OrderItem) error {
	subject := fmt.Sprintf("【キャンセル】ご注文がキャンセルされました（注文番号: %s）", orderNumber)
	body := BuildCancellationBody(customerName, orderNumber, reason, total, refund, items)
	return s.deliver(to, subject, body)
}

func (s *Service) deliver(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, s.auth, s.from, []string{to}, []byte(msg))
}
