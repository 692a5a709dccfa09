package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Reminder — данные одного напоминания о приёме.
type Reminder struct {
	PatientName string
	DoctorName  string
	Email       string
	Phone       string
	ScheduledAt time.Time
}

// Sender — контракт доставки напоминаний. Ошибки доставки логируются
// вызывающей стороной и никогда не прерывают обход.
type Sender interface {
	SendEmail(ctx context.Context, r Reminder) error
	SendSMS(ctx context.Context, r Reminder) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

// SMTPSender шлёт письма через SMTP; SMS-канал пока заглушка,
// реальная интеграция (Twilio и т.п.) подключается отдельно.
type SMTPSender struct {
	cfg SMTPConfig
	log zerolog.Logger
}

func NewSMTPSender(cfg SMTPConfig, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

func (s *SMTPSender) SendEmail(ctx context.Context, r Reminder) error {
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\n"+
			"This is a reminder about your upcoming appointment:\r\n\r\n"+
			"Doctor: Dr. %s\r\n"+
			"Date & Time: %s\r\n\r\n"+
			"Please arrive 15 minutes before your scheduled time.\r\n\r\n"+
			"Best regards,\r\nHealthcare Appointment System",
		r.PatientName,
		r.DoctorName,
		r.ScheduledAt.Format("January 2, 2006 at 3:04 PM"),
	)

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + r.Email,
		"Subject: Appointment Reminder",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{r.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", r.Email, err)
	}

	s.log.Info().Str("email", r.Email).Msg("reminder email sent")
	return nil
}

func (s *SMTPSender) SendSMS(ctx context.Context, r Reminder) error {
	s.log.Info().
		Str("phone", r.Phone).
		Str("patient", r.PatientName).
		Time("scheduled_at", r.ScheduledAt).
		Msg("sms reminder (stub)")
	return nil
}
