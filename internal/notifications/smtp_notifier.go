package notifications

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	// From defaults to User when empty
	From string
}

// SMTPNotifier sends transactional mail over plain SMTP with AUTH PLAIN
// and STARTTLS when the server offers it (smtp.SendMail negotiates both).
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	if cfg.From == "" {
		cfg.From = cfg.User
	}

	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) SendResetLink(ctx context.Context, in SendResetLinkInput) error {
	name := in.Name

	if name == "" {
		name = "there"
	}

	html := fmt.Sprintf(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;padding:20px;">
<h1 style="margin:0 0 16px;">Modern Blog</h1>
<h2>Password Reset Request</h2>
<p>Hello %s,</p>
<p>We received a request to reset the password for your Modern Blog account.
Click the link below to create a new password:</p>
<p><a href="%s">Reset Password</a></p>
<p>Or copy this link: %s</p>
<p><strong>This link will expire in 1 hour.</strong></p>
<p>If you didn't request this password reset, please ignore this email.</p>
</div>`, name, in.Link, in.Link)

	text := fmt.Sprintf(`Hello %s!

We received a request to reset your Modern Blog account password.
Click the link below to reset your password: %s

This link will expire in 1 hour.

If you didn't request this, please ignore this email.`, name, in.Link)

	return n.send(ctx, in.Email, "Reset Your Password - Modern Blog", html, text)
}

func (n *SMTPNotifier) SendPasswordChanged(ctx context.Context, in SendPasswordChangedInput) error {
	name := in.Name

	if name == "" {
		name = "User"
	}

	html := fmt.Sprintf(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;padding:20px;">
<h1 style="margin:0 0 16px;">Modern Blog</h1>
<h2>Password Changed Successfully</h2>
<p>Hello %s,</p>
<p>Your Modern Blog account password has been successfully changed.</p>
<p>If you didn't make this change, please contact our support team immediately.</p>
</div>`, name)

	text := fmt.Sprintf(`Hello %s,

Your Modern Blog account password has been successfully changed.

If you didn't make this change, please contact our support team immediately.`, name)

	return n.send(ctx, in.Email, "Password Changed Successfully - Modern Blog", html, text)
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, html, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Pass, n.cfg.Host)

	msg := buildMessage(n.cfg.From, to, subject, html, text)

	// smtp.SendMail is blocking; the circuit-breaker wrapper enforces the
	// per-send timeout at a higher layer.
	return smtp.SendMail(addr, auth, n.cfg.From, []string{to}, msg)
}

// buildMessage assembles a multipart/alternative payload with a plain-text
// part and an HTML part.
func buildMessage(from, to, subject, html, text string) []byte {
	const boundary = "modernblog-alt-boundary"

	var b strings.Builder

	fmt.Fprintf(&b, "From: \"Modern Blog\" <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}
