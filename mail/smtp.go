package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	gomail "gopkg.in/gomail.v2"
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppName  string
}

// SMTPMailer delivers verification links and password-reset codes through
// an SMTP relay.
//
// SMTPMailer instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SMTPMailer struct {
	config Config
	dialer *gomail.Dialer
}

// NewSMTPMailer describes the newsmtpmailer operation and its observable behavior.
//
// NewSMTPMailer may return an error when input validation, dependency calls, or security checks fail.
// NewSMTPMailer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, errors.New("smtp host and port are required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}
	if cfg.AppName == "" {
		cfg.AppName = "authgate"
	}

	return &SMTPMailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

var verificationTmpl = template.Must(template.New("verification").Parse(`
<p>Hi {{.Username}},</p>
<p>Welcome to {{.AppName}}! Please confirm your email address by clicking the link below. The link expires in 20 minutes.</p>
<p><a href="{{.VerifyURL}}">Verify your email</a></p>
<p>If you did not create this account, you can ignore this message.</p>
`))

var resetOTPTmpl = template.Must(template.New("reset_otp").Parse(`
<p>Hi {{.Username}},</p>
<p>Your {{.AppName}} password reset code is:</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
<p>The code expires in 20 minutes. If you did not request a reset, you can ignore this message.</p>
`))

// SendVerification describes the sendverification operation and its observable behavior.
//
// SendVerification may return an error when input validation, dependency calls, or security checks fail.
// SendVerification does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, username, verifyURL string) error {
	body, err := render(verificationTmpl, map[string]string{
		"Username":  username,
		"AppName":   m.config.AppName,
		"VerifyURL": verifyURL,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, to, fmt.Sprintf("Verify your %s email", m.config.AppName), body)
}

// SendPasswordResetOTP describes the sendpasswordresetotp operation and its observable behavior.
//
// SendPasswordResetOTP may return an error when input validation, dependency calls, or security checks fail.
// SendPasswordResetOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *SMTPMailer) SendPasswordResetOTP(ctx context.Context, to, username, code string) error {
	body, err := render(resetOTPTmpl, map[string]string{
		"Username": username,
		"AppName":  m.config.AppName,
		"Code":     code,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, to, fmt.Sprintf("Your %s password reset code", m.config.AppName), body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	// DialAndSend has no context hook; run it out-of-band so a dead relay
	// cannot pin the caller past its deadline.
	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func render(tmpl *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render mail template: %w", err)
	}
	return buf.String(), nil
}
