package smtp

import (
	"PotholeGolang/internal/entity"
	"errors"
	"io"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// ItfSmtp is the mail transport collaborator. SendReport delivers one
// multipart/related HTML message with the given images embedded inline,
// addressable from the body as cid:<ContentID>.
type ItfSmtp interface {
	SendReport(recipient string, subject string, htmlBody string, inline []entity.ImageArtifact) error
}

type mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New fails fast when credentials are missing; a misconfigured mailer is a
// construction-time error, distinct from transient per-recipient send
// failures at runtime.
func New() (ItfSmtp, error) {
	user := os.Getenv("EMAIL_USER")
	password := os.Getenv("EMAIL_PASSWORD")
	if user == "" || password == "" {
		return nil, errors.New("email configuration missing: set EMAIL_USER and EMAIL_PASSWORD")
	}

	host := os.Getenv("SMTP_SERVER")
	if host == "" {
		host = "smtp.gmail.com"
	}

	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.New("SMTP_PORT must be a valid integer")
		}
		port = parsed
	}

	// gomail negotiates STARTTLS on the connection before authenticating
	dialer := gomail.NewDialer(host, port, user, password)

	return &mailer{dialer: dialer, from: user}, nil
}

func (m *mailer) SendReport(recipient string, subject string, htmlBody string, inline []entity.ImageArtifact) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	for _, artifact := range inline {
		if len(artifact.Bytes) > 0 {
			data := artifact.Bytes
			msg.Embed(artifact.ContentID, gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}))
		} else if artifact.Path != "" {
			msg.Embed(artifact.Path, gomail.Rename(artifact.ContentID))
		}
	}

	return m.dialer.DialAndSend(msg)
}
