package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"sync"
)

// Sender delivers a single message. The enrollment flow is the only
// caller that cares about the error: a failed dispatch there rolls back
// the record that was just created.
type Sender interface {
	Send(to, subject, body string) error
}

// VerificationMessage builds the account-activation mail for a freshly
// enrolled user.
func VerificationMessage(to, code string) (subject, body string) {
	subject = "Verification Code"
	body = fmt.Sprintf(
		"Hi %s\n\n"+
			"Your verification code to activate your account is: %s\n\n"+
			"If you did not request this, you can ignore this email.\n",
		to, code)
	return subject, body
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// Message is a recorded outbound mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Recorder captures messages instead of sending them. Err, when set, is
// returned from every Send call.
type Recorder struct {
	mu   sync.Mutex
	Err  error
	Sent []Message
}

func (r *Recorder) Send(to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Last returns the most recently recorded message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		return Message{}, false
	}
	return r.Sent[len(r.Sent)-1], true
}
