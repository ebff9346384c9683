package mail

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	gomail "github.com/wneessen/go-mail"
	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
)

const defaultBody = "Please find the attached news report PDF."

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
	Timeout  time.Duration
}

// Sender delivers a document as an email attachment over SMTP with STARTTLS.
type Sender struct {
	cfg  Config
	dial func(ctx context.Context, msg *gomail.Msg) error
}

func NewSender(cfg Config) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Subject == "" {
		cfg.Subject = "News Report PDF"
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	s := &Sender{cfg: cfg}
	s.dial = s.dialAndSend
	return s
}

// Send mails the file at path to recipient. The file must exist and be non-empty.
func (s *Sender) Send(ctx context.Context, recipient, path string) error {
	if err := CheckAttachment(path); err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(s.cfg.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, defaultBody)
	msg.AttachFile(path)

	if err := s.dial(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	log.FromCtx(ctx).Info().Str("to", recipient).Str("attachment", path).Msg("report mailed")
	return nil
}

func (s *Sender) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(s.cfg.Timeout))
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// CheckAttachment reports models.ErrDocumentNotFound or models.ErrDocumentEmpty for unusable files.
func CheckAttachment(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, path)
	}
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", models.ErrDocumentEmpty, path)
	}
	return nil
}
