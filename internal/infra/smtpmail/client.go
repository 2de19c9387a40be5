// Package smtpmail sends the suite's own mail, such as the run summary.
package smtpmail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

type Client struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool

	log *slog.Logger
	now func() time.Time
}

func New(cfg domain.EmailConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		From:     cfg.User,
		UseTLS:   cfg.UseTLS,
		log:      log,
		now:      time.Now,
	}
}

var _ ports.Notifier = (*Client)(nil)

func (c *Client) Send(ctx context.Context, msg domain.OutgoingEmail) error {
	const op = "smtpmail.send"
	if c.Host == "" {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Err: fmt.Errorf("smtp host not configured")}
	}
	if c.From == "" {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Err: fmt.Errorf("smtp from not configured")}
	}
	if len(msg.To) == 0 {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Err: fmt.Errorf("no recipients")}
	}

	data, err := c.Build(msg)
	if err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Err: err}
	}

	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	if err := c.deliver(ctx, addr, msg.To, data); err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: addr, Err: err}
	}
	c.log.Info("email sent", "to", strings.Join(msg.To, ","), "subject", msg.Subject)
	return nil
}

func (c *Client) deliver(ctx context.Context, addr string, to []string, data []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	sc, err := smtp.NewClient(conn, c.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer sc.Close()

	if c.UseTLS {
		if err := sc.StartTLS(&tls.Config{ServerName: c.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if c.Username != "" || c.Password != "" {
		if err := sc.Auth(smtp.PlainAuth("", c.Username, c.Password, c.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := sc.Mail(c.From); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := sc.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := sc.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return sc.Quit()
}

// Build renders msg as a multipart/alternative message. The HTML part is
// omitted when msg.HTML is empty.
func (c *Client) Build(msg domain.OutgoingEmail) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct{ ctype, content string }{{"text/plain", msg.Text}}
	if msg.HTML != "" {
		parts = append(parts, struct{ ctype, content string }{"text/html", msg.HTML})
	}
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", p.ctype+"; charset=UTF-8")
		h.Set("Content-Transfer-Encoding", "8bit")
		pw, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	headers := []string{
		"From: " + c.From,
		"To: " + strings.Join(msg.To, ", "),
		"Subject: " + msg.Subject,
		"Date: " + c.now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mw.Boundary(),
	}

	var out bytes.Buffer
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
