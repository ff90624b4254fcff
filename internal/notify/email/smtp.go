// Package email delivers lifecycle emails over SMTP, or to the log when no
// mail server is configured.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify"
)

// Config holds SMTP settings. Username and Password are optional.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	From           string
	ActivationLink string
}

// Message is a single rendered email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPNotifier renders lifecycle emails and hands them to a Sender.
type SMTPNotifier struct {
	from     string
	renderer *Renderer
	sender   Sender
	log      *zap.SugaredLogger
}

func NewSMTPNotifier(cfg Config, logger *zap.SugaredLogger) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	r, err := NewRenderer(cfg.ActivationLink)
	if err != nil {
		return nil, err
	}
	return newNotifier(cfg.From, r, &smtpSender{cfg: cfg}, logger), nil
}

func newNotifier(from string, r *Renderer, s Sender, logger *zap.SugaredLogger) *SMTPNotifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SMTPNotifier{from: from, renderer: r, sender: s, log: logger}
}

func (n *SMTPNotifier) SendWelcome(ctx context.Context, to notify.Recipient) error {
	body, err := n.renderer.Welcome(to)
	if err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}
	return n.send(ctx, to, SubjectWelcome, body)
}

func (n *SMTPNotifier) SendActivation(ctx context.Context, to notify.Recipient) error {
	body, err := n.renderer.Activation(to)
	if err != nil {
		return fmt.Errorf("render activation email: %w", err)
	}
	return n.send(ctx, to, SubjectActivation, body)
}

func (n *SMTPNotifier) send(ctx context.Context, to notify.Recipient, subject, body string) error {
	msg := Message{From: n.from, To: to.Email, Subject: subject, HTML: body}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to.Email, err)
	}
	n.log.Infow("email sent", "to", to.Email, "subject", subject, "account_id", to.AccountID)
	return nil
}

var _ notify.Notifier = (*SMTPNotifier)(nil)

type smtpSender struct {
	cfg Config
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if s.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(msg.From); err != nil {
		return err
	}
	if err := c.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	raw, err := buildMIME(msg, time.Now())
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMIME(msg Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("From: " + msg.From + "\r\n")
	buf.WriteString("To: " + msg.To + "\r\n")
	buf.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	buf.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(msg.HTML)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
