package mailer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/lmsops/lp-reset-api/pkg/config"
	"github.com/lmsops/lp-reset-api/pkg/jobs"
)

// Message is one outbound notification mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// SMTPSender delivers messages synchronously over SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender builds a sender from SMTP config.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a single message.
func (s *SMTPSender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// QueuedMailer enqueues messages onto a background worker pool so SMTP
// latency never stalls the caller.
type QueuedMailer struct {
	queue *jobs.Queue
}

// NewQueuedMailer wires a sender behind a jobs.Queue. Start/Stop control the
// worker pool lifecycle.
func NewQueuedMailer(sender *SMTPSender, cfg config.NotificationsConfig, logger *zap.Logger) *QueuedMailer {
	handler := func(_ context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(Message)
		if !ok {
			return fmt.Errorf("unexpected mail payload %T", job.Payload)
		}
		return sender.Send(msg)
	}

	queue := jobs.NewQueue("notification-mail", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})

	return &QueuedMailer{queue: queue}
}

// Start launches the mail workers.
func (m *QueuedMailer) Start(ctx context.Context) {
	m.queue.Start(ctx)
}

// Stop drains the workers.
func (m *QueuedMailer) Stop() {
	m.queue.Stop()
}

// Enqueue schedules one message for delivery.
func (m *QueuedMailer) Enqueue(to, subject, body string) error {
	return m.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "notification",
		Payload: Message{To: to, Subject: subject, Body: body},
	})
}
