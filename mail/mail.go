// Package mail is the outbound-email collaborator boundary. The engine
// depends only on [Sender]; the SMTP implementation lives in smtp.go and
// tests substitute fakes.
package mail

import (
	"context"
	"fmt"
	"time"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations return an error when the
// collaborator rejects the send; callers map that to their delivery error.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// OTPMessage builds the verification email for a one-time code. The
// stated validity window is informational; the stored expiry is the
// authority.
func OTPMessage(to, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your guidance office verification code",
		Body: fmt.Sprintf(
			"Your one-time verification code is %s.\n\n"+
				"It expires in %d minutes. If you did not request this code, you can ignore this email.\n",
			code, int(ttl.Minutes()),
		),
	}
}
