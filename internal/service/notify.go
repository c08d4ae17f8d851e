package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier delivers a user-facing message. Delivery is fire-and-forget with
// respect to state transitions: a failed Notify never rolls anything back.
type Notifier interface {
	Notify(ctx context.Context, chatID, text string) error
}

// NewNotifierFromEnv picks the delivery channel from NOTIFY_DRIVER:
// "telegram", "sms", "email" or anything else for log-only output.
func NewNotifierFromEnv() Notifier {
	switch os.Getenv("NOTIFY_DRIVER") {
	case "telegram":
		return NewTelegramNotifier(os.Getenv("BOT_TOKEN"))
	case "sms":
		return NewTwilioNotifier()
	case "email":
		return NewSendGridNotifier()
	default:
		return LogNotifier{}
	}
}

// TelegramNotifier posts messages through the Telegram Bot API; the chat id
// is the user's stable external identity.
type TelegramNotifier struct {
	token  string
	client *http.Client
}

func NewTelegramNotifier(token string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, chatID, text string) error {
	if n.token == "" {
		return fmt.Errorf("BOT_TOKEN not set")
	}
	payload, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}
	url := "https://api.telegram.org/bot" + n.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

// TwilioNotifier sends SMS; it expects the chat identity to be an E.164
// phone number, which is the case for SMS-based chat front ends.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioNotifier() *TwilioNotifier {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	return &TwilioNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		from: os.Getenv("TWILIO_FROM_NUMBER"),
	}
}

func (n *TwilioNotifier) Notify(ctx context.Context, chatID, text string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(chatID)
	params.SetFrom(n.from)
	params.SetBody(text)

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}

// SendGridNotifier emails the message; the chat identity is an address.
type SendGridNotifier struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridNotifier() *SendGridNotifier {
	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = "ParkMate"
	}
	return &SendGridNotifier{
		apiKey:    os.Getenv("SENDGRID_API_KEY"),
		fromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		fromName:  fromName,
	}
}

func (n *SendGridNotifier) Notify(ctx context.Context, chatID, text string) error {
	if n.apiKey == "" || n.fromEmail == "" {
		return fmt.Errorf("SendGrid credentials not configured")
	}
	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail("", chatID)
	message := mail.NewSingleEmail(from, "ParkMate parking update", to, text, "")

	client := sendgrid.NewSendClient(n.apiKey)
	resp, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SendGrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogNotifier writes messages to the process log, for development.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, chatID, text string) error {
	log.Printf("notify %s: %s", chatID, text)
	return nil
}
