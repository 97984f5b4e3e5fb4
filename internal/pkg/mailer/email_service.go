// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	Enabled() bool
	SendOperatorAlert(subject, message string, details map[string]interface{}) error
}

type emailService struct {
	dialer        *gomail.Dialer
	senderEmail   string
	senderName    string
	operatorEmail string
}

// NewEmailService returns a mailer that is disabled when host or operator
// address is empty.
func NewEmailService(host string, port int, username, password, senderName, operatorEmail string) IEmailService {
	var d *gomail.Dialer
	if host != "" {
		d = gomail.NewDialer(host, port, username, password)
	}

	return &emailService{
		dialer:        d,
		senderEmail:   username,
		senderName:    senderName,
		operatorEmail: operatorEmail,
	}
}

func (s *emailService) Enabled() bool {
	return s.dialer != nil && s.operatorEmail != ""
}

func (s *emailService) SendOperatorAlert(subject, message string, details map[string]interface{}) error {
	if !s.Enabled() {
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", s.operatorEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", renderAlert(message, details))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send operator alert: %w", err)
	}
	return nil
}

func renderAlert(message string, details map[string]interface{}) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<div style="font-family: monospace; padding: 16px;">`)
	fmt.Fprintf(&b, "<h3>%s</h3><table>", html.EscapeString(message))
	for _, k := range keys {
		fmt.Fprintf(&b, "<tr><td><b>%s</b></td><td><pre>%s</pre></td></tr>",
			html.EscapeString(k), html.EscapeString(fmt.Sprintf("%v", details[k])))
	}
	b.WriteString("</table></div>")
	return b.String()
}
