package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Mailer delivers account lifecycle emails over SMTP. It is constructed
// once at startup and injected wherever delivery is needed.
type Mailer struct {
	client     *gomail.Client
	from       string
	appBaseURL string
}

type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AppBaseURL string
	Timeout    time.Duration
}

func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	return &Mailer{client: client, from: cfg.From, appBaseURL: cfg.AppBaseURL}, nil
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)
	return m.client.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) SendVerification(ctx context.Context, to, firstName, token string) error {
	link := fmt.Sprintf("%s/verify-email/%s", m.appBaseURL, token)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Welcome to Bio Plus! Please verify your email address to activate your account:</p>
<p><a href="%s">Verify my email</a></p>
<p>This link expires in 24 hours.</p>`, firstName, link)
	return m.send(ctx, to, "Verify your Bio Plus account", body)
}

func (m *Mailer) SendWelcome(ctx context.Context, to, firstName string) error {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your email is verified and your Bio Plus account is active. Happy studying!</p>`, firstName)
	return m.send(ctx, to, "Welcome to Bio Plus", body)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, firstName, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", m.appBaseURL, token)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password:</p>
<p><a href="%s">Reset my password</a></p>
<p>This link expires in 1 hour. If you did not request this, you can ignore this email.</p>`, firstName, link)
	return m.send(ctx, to, "Reset your Bio Plus password", body)
}

func (m *Mailer) SendAccountLocked(ctx context.Context, to, firstName string) error {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your account has been temporarily locked after repeated failed login attempts.
You can try again in 2 hours or reset your password now.</p>`, firstName)
	return m.send(ctx, to, "Your Bio Plus account is locked", body)
}
