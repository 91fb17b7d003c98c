package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer sends email through an SMTP relay using gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTP creates an SMTPMailer for the given relay.
func NewSMTP(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (m *SMTPMailer) send(to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func (m *SMTPMailer) SendQueueReminder(to string, waitedHours int, inviteLink string) error {
	return m.send([]string{to},
		"Your app is still waiting for testers",
		fmt.Sprintf(`<p>Your app has been in the matchmaking queue for over %d hours. Invite a few fellow developers so a group can form faster: <a href="%s">%s</a></p>`,
			waitedHours, inviteLink, inviteLink))
}

func (m *SMTPMailer) SendGroupMatched(to []string, groupNumber int64) error {
	return m.send(to,
		fmt.Sprintf("You have been matched to group #%d", groupNumber),
		fmt.Sprintf(`<p>A new testing group (#%d) has been created for you. Coordinate with your fellow members to reach the testing phase quickly.</p>`, groupNumber))
}

func (m *SMTPMailer) SendGroupReady(to []string, groupNumber int64) error {
	return m.send(to,
		fmt.Sprintf("Group #%d is ready to start testing", groupNumber),
		fmt.Sprintf(`<p>Group #%d is full. Install each other's apps and confirm your testers to start the testing period.</p>`, groupNumber))
}

func (m *SMTPMailer) SendTesterDecision(to string, groupNumber int64, decision, ownerName, ownerEmail string) error {
	return m.send([]string{to},
		fmt.Sprintf("Your tester request was %s", decision),
		fmt.Sprintf(`<p>%s&lt;%s&gt; %s your claim of testing their app in group #%d.</p>`,
			ownerName, ownerEmail, decision, groupNumber))
}

func (m *SMTPMailer) SendGroupComplete(to []string, groupNumber int64) error {
	return m.send(to,
		fmt.Sprintf("Group #%d finished its testing period", groupNumber),
		fmt.Sprintf(`<p>The closed testing period for group #%d is complete. Thank you for testing!</p>`, groupNumber))
}
