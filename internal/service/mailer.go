// Package service holds the external collaborators the core calls:
// outbound email and payment checkout. Both are interfaces so tests
// and degraded deployments can substitute them.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Mail template keys.
const (
	MailWelcome       = "welcome"
	MailPasswordReset = "passwordReset"
)

// emailQueue is the durable queue the delivery worker consumes.
const emailQueue = "email.outbound"

// Mailer delivers a templated email to one recipient. Implementations
// must never see plaintext passwords; reset URLs arrive via vars.
type Mailer interface {
	Send(ctx context.Context, template, to string, vars map[string]string) error
}

// EmailMessage is the payload published for the delivery worker.
type EmailMessage struct {
	Template string            `json:"template"`
	To       string            `json:"to"`
	Vars     map[string]string `json:"vars,omitempty"`
	QueuedAt string            `json:"queued_at"`
}

// QueueMailer publishes email messages to RabbitMQ. A connection is
// dialed per send so a broker restart never wedges the API; failures
// are logged and returned for the caller to decide on.
type QueueMailer struct{ URL string }

func NewQueueMailer(url string) *QueueMailer { return &QueueMailer{URL: url} }

func (m *QueueMailer) Send(ctx context.Context, template, to string, vars map[string]string) error {
	conn, err := amqp.Dial(m.URL)
	if err != nil {
		log.Printf("mailer: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("mailer: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so queued mail survives broker restarts.
	if _, err := ch.QueueDeclare(emailQueue, true, false, false, false, nil); err != nil {
		log.Printf("mailer: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(EmailMessage{
		Template: template,
		To:       to,
		Vars:     vars,
		QueuedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", emailQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		log.Printf("mailer: publish failed: %v", err)
	}
	return err
}

// LogMailer is the fallback when no broker is configured. It logs the
// template and recipient, never the variables, which may carry reset
// URLs.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, template, to string, _ map[string]string) error {
	log.Printf("mailer (noop): template=%s to=%s", template, to)
	return nil
}
