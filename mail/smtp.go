package mail

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	aurauth "github.com/aura-labs/aurauth"
)

// Config describes the SMTP relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// Sender is the From address; SenderName its display name.
	Sender     string
	SenderName string
}

// SMTP delivers messages through an authenticated relay using PLAIN
// auth over STARTTLS (the relay negotiates the upgrade).
type SMTP struct {
	cfg  Config
	addr string
	auth smtp.Auth
}

// NewSMTP validates the relay configuration.
func NewSMTP(cfg Config) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp host and port required")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("smtp sender required")
	}

	return &SMTP{
		cfg:  cfg,
		addr: net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
	}, nil
}

// Send implements aurauth.Mailer. The smtp dial itself cannot take a
// context, so cancellation is checked before the (bounded, synchronous)
// exchange starts; the engine's per-send timeout covers the rest.
func (s *SMTP) Send(ctx context.Context, msg aurauth.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return smtp.SendMail(s.addr, s.auth, s.cfg.Sender, []string{msg.To}, s.encode(msg))
}

func (s *SMTP) encode(msg aurauth.Message) []byte {
	var b strings.Builder

	from := s.cfg.Sender
	if s.cfg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.cfg.SenderName), s.cfg.Sender)
	}

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML != "" {
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(msg.HTML)
	} else {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.Text)
	}
	b.WriteString("\r\n")

	return []byte(b.String())
}
