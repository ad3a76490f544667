package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"os"

	"github.com/resendlabs/resend-go"
)

type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
	logger   *log.Logger
}

func NewEmailService() *EmailService {
	return &EmailService{
		client:   resend.NewClient(os.Getenv("RESEND_API_KEY")),
		from:     os.Getenv("EMAIL_FROM_ADDRESS"),
		fromName: os.Getenv("EMAIL_FROM_NAME"),
		logger:   log.New(os.Stdout, "EMAIL: ", log.LstdFlags),
	}
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<h2>Welcome to Plagiacheck, {{.Name}}!</h2>
<p>Your account is ready. You can start using the text tools right away.</p>
`))

var paymentFailedTmpl = template.Must(template.New("payment_failed").Parse(`
<h2>Payment failed</h2>
<p>Hi {{.Name}}, we could not charge your card for your {{.Plan}} subscription.</p>
<p>Please <a href="{{.RetryURL}}">update your payment method and retry</a>.
After repeated failures your subscription will be cancelled.</p>
`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`
<h2>Password reset</h2>
<p><a href="{{.ResetURL}}">Click here</a> to reset your password.
The link is valid for 15 minutes.</p>
`))

var subscriptionCanceledTmpl = template.Must(template.New("subscription_canceled").Parse(`
<h2>Subscription cancelled</h2>
<p>Hi {{.Name}}, your {{.Plan}} subscription has been cancelled.
Your remaining tokens stay usable until they run out.</p>
`))

func (e *EmailService) send(to, subject string, tmpl *template.Template, data interface{}) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", e.fromName, e.from),
		To:      []string{to},
		Subject: subject,
		Html:    body.String(),
	}

	if _, err := e.client.Emails.Send(params); err != nil {
		e.logger.Printf("send failed to=%s subject=%q: %v", to, subject, err)
		return err
	}

	e.logger.Printf("sent to=%s subject=%q", to, subject)
	return nil
}

func (e *EmailService) SendPasswordResetEmail(to, token string) error {
	resetURL := fmt.Sprintf("%s/en/reset-password?token=%s", os.Getenv("APP_URL"), token)
	return e.send(to, "Reset your Plagiacheck password", passwordResetTmpl, map[string]string{
		"ResetURL": resetURL,
	})
}

func (e *EmailService) SendWelcomeEmail(to, name string) error {
	return e.send(to, "Welcome to Plagiacheck", welcomeTmpl, map[string]string{
		"Name": name,
	})
}

func (e *EmailService) SendPaymentFailedEmail(to, name, plan, retryURL string) error {
	return e.send(to, "Your Plagiacheck payment failed", paymentFailedTmpl, map[string]string{
		"Name":     name,
		"Plan":     plan,
		"RetryURL": retryURL,
	})
}

func (e *EmailService) SendSubscriptionCanceledEmail(to, name, plan string) error {
	return e.send(to, "Your Plagiacheck subscription was cancelled", subscriptionCanceledTmpl, map[string]string{
		"Name": name,
		"Plan": plan,
	})
}
