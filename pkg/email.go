package pkg

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	brevo "github.com/getbrevo/brevo-go/lib"
	gomail "github.com/wneessen/go-mail"

	"studio"
)

var providerRegistry = make(map[EmailProvider]IEmailProvider)
var defaultPriority []EmailProvider

const maxRetries = 2

func InitializeEmailsProviders() {
	cfg := studio.GetConfig()

	b := &BrevoProvider{}
	b.init()

	smtp := &SMTPCustomProvider{
		Host:     cfg.SmtpConfig.Host,
		Port:     cfg.SmtpConfig.Port,
		Username: cfg.SmtpConfig.Username,
		Password: cfg.SmtpConfig.Password,
		From:     cfg.SmtpConfig.From,
		UseTLS:   cfg.SmtpConfig.UseTLS,
	}
	smtp.init()

	providerRegistry[EMAIL_PROVIDER_BREVO] = b
	providerRegistry[EMAIL_PROVIDER_SMTP_CUSTOM] = smtp

	defaultPriority = append(defaultPriority, b.name(), smtp.name())
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

func AttachmentFromFile(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func AttachmentFromCSV(filename string, csvData string) Attachment {
	return Attachment{
		Filename:    filename,
		ContentType: "text/csv",
		Data:        []byte(csvData),
	}
}

func AttachmentFromBase64(filename string, contentType string, b64String string) (Attachment, error) {
	data, err := base64.StdEncoding.DecodeString(b64String)
	if err != nil {
		return Attachment{}, fmt.Errorf("invalid base64: %w", err)
	}
	return Attachment{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

type EmailMessage struct {
	To          []string
	CC          []string
	BCC         []string
	Subject     string
	Body        string
	IsHTML      bool
	Attachments []Attachment
}

type IEmailProvider interface {
	init()
	isInitialized() bool
	send(msg EmailMessage) iCustomEmailError
	name() EmailProvider // Useful for logging/metrics
}

type iCustomEmailError interface {
	error
	Temporary() bool
}

type CustomEmailError struct {
	Msg  string
	Temp bool
}

func (e *CustomEmailError) Error() string   { return e.Msg }
func (e *CustomEmailError) Temporary() bool { return e.Temp }

func SendEmail(msg EmailMessage, requestedProviders ...EmailProvider) error {
	if len(requestedProviders) == 0 {
		requestedProviders = defaultPriority
	}

	var errs []string

	for _, providerID := range requestedProviders {
		impl, exists := providerRegistry[providerID]
		if !exists || !impl.isInitialized() {
			errs = append(errs, fmt.Sprintf("provider %v: skipped (not ready)", providerID))
			continue
		}

		var lastErr iCustomEmailError
		for i := 0; i < maxRetries; i++ {
			lastErr = impl.send(msg)

			if lastErr == nil {
				return nil // Success!
			}

			// Check if we should stop immediately (Permanent Error)
			if !lastErr.Temporary() {
				return fmt.Errorf("permanent error from %v: %w", providerID, lastErr)
			}

			if i < maxRetries-1 {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
			}
		}

		errs = append(errs, fmt.Sprintf("%v after %d attempts: %v", providerID, maxRetries, lastErr))
	}

	return fmt.Errorf("all email providers failed: %s", strings.Join(errs, " | "))
}

type EmailProvider int

const (
	EMAIL_PROVIDER_BREVO EmailProvider = iota
	EMAIL_PROVIDER_SMTP_CUSTOM
	EMAIL_PROVIDER_DEFAULT = EMAIL_PROVIDER_BREVO
)

type BrevoProvider struct {
	client      *brevo.APIClient
	senderEmail string
	senderName  string
	initialized bool
}

func (b *BrevoProvider) init() {
	cfg := studio.GetConfig().BrevoConfig
	if cfg.APIKey == "" {
		return
	}
	apiCfg := brevo.NewConfiguration()
	apiCfg.AddDefaultHeader("api-key", cfg.APIKey)
	b.client = brevo.NewAPIClient(apiCfg)
	b.senderEmail = cfg.SenderEmail
	b.senderName = cfg.SenderName
	b.initialized = true
}
func (b *BrevoProvider) isInitialized() bool { return b.initialized }
func (b *BrevoProvider) send(msg EmailMessage) iCustomEmailError {
	email := brevo.SendSmtpEmail{
		Sender:  &brevo.SendSmtpEmailSender{Email: b.senderEmail, Name: b.senderName},
		Subject: msg.Subject,
	}
	for _, to := range msg.To {
		email.To = append(email.To, brevo.SendSmtpEmailTo{Email: to})
	}
	for _, cc := range msg.CC {
		email.Cc = append(email.Cc, brevo.SendSmtpEmailCc{Email: cc})
	}
	for _, bcc := range msg.BCC {
		email.Bcc = append(email.Bcc, brevo.SendSmtpEmailBcc{Email: bcc})
	}
	if msg.IsHTML {
		email.HtmlContent = msg.Body
	} else {
		email.TextContent = msg.Body
	}
	for _, att := range msg.Attachments {
		email.Attachment = append(email.Attachment, brevo.SendSmtpEmailAttachment{
			Name:    att.Filename,
			Content: base64.StdEncoding.EncodeToString(att.Data),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, resp, err := b.client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err != nil {
		temp := resp != nil && resp.StatusCode >= 500
		return &CustomEmailError{Msg: fmt.Sprintf("brevo send failed: %v", err), Temp: temp}
	}
	return nil
}
func (b *BrevoProvider) name() EmailProvider { return EMAIL_PROVIDER_BREVO }

type SMTPCustomProvider struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	UseTLS      bool
	initialized bool
}

func (s *SMTPCustomProvider) isInitialized() bool {
	return s.initialized
}
func (s *SMTPCustomProvider) init() {
	s.initialized = s.Host != "" && s.Username != ""
}
func (s *SMTPCustomProvider) send(msg EmailMessage) iCustomEmailError {
	from := s.From
	if from == "" {
		from = s.Username
	}

	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return &CustomEmailError{Msg: fmt.Sprintf("failed to set from: %v", err)}
	}
	if err := m.To(msg.To...); err != nil {
		return &CustomEmailError{Msg: fmt.Sprintf("failed to set to: %v", err)}
	}
	if len(msg.CC) > 0 {
		if err := m.Cc(msg.CC...); err != nil {
			return &CustomEmailError{Msg: fmt.Sprintf("failed to set cc: %v", err)}
		}
	}
	if len(msg.BCC) > 0 {
		if err := m.Bcc(msg.BCC...); err != nil {
			return &CustomEmailError{Msg: fmt.Sprintf("failed to set bcc: %v", err)}
		}
	}

	m.Subject(msg.Subject)
	if msg.IsHTML {
		m.SetBodyString(gomail.TypeTextHTML, msg.Body)
	} else {
		m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	}
	for _, att := range msg.Attachments {
		m.AttachReader(att.Filename, strings.NewReader(string(att.Data)))
	}

	tlsPolicy := gomail.TLSOpportunistic
	if s.UseTLS {
		tlsPolicy = gomail.TLSMandatory
	}
	opts := []gomail.Option{
		gomail.WithPort(s.Port),
		gomail.WithTLSPolicy(tlsPolicy),
	}
	if s.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.Username),
			gomail.WithPassword(s.Password),
		)
	}
	client, err := gomail.NewClient(s.Host, opts...)
	if err != nil {
		return &CustomEmailError{Msg: fmt.Sprintf("failed to create SMTP client: %v", err)}
	}

	if err := client.DialAndSend(m); err != nil {
		return &CustomEmailError{Msg: fmt.Sprintf("failed to send email: %v", err), Temp: true}
	}
	return nil
}
func (s *SMTPCustomProvider) name() EmailProvider { return EMAIL_PROVIDER_SMTP_CUSTOM }
