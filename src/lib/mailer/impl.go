package mailer

import (
	"fmt"
	"hbs/src/lib"
	"hbs/src/types"
	"os"
)

// NewMailerMessage mirrors the mail to the email queue topic for downstream
// consumers and then sends it directly over SMTP.
func NewMailerMessage(input *lib.SendMailInput) error {
	emailQueue := os.Getenv("EMAIL_QUEUE")
	if os.Getenv("KAFKA_BROKER") != "" && emailQueue != "" {
		emailBody := types.JSONB{
			"from":      input.From,
			"from-name": input.FromName,
			"to":        input.To,
			"cc":        input.Cc,
			"bcc":       input.Bcc,
			"reply-to":  input.ReplyTo,
			"body":      input.Body,
			"html":      input.Html,
			"subject":   input.Subject,
		}
		if err := lib.KafkaProduceMessage("emails", emailQueue, emailBody); err != nil {
			return fmt.Errorf("error sending message to queue: %s", err.Error())
		}
	}
	return lib.SendMail(input)
}
