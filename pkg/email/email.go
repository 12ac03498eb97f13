package email

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Recipients splits a comma-separated address list and rejects malformed entries.
func Recipients(to string) ([]string, error) {
	var out []string
	for _, addr := range strings.Split(to, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if !strings.Contains(addr, "@") {
			return nil, fmt.Errorf("invalid email address: %s", addr)
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no email recipients")
	}
	return out, nil
}

// Message builds a plain-text RFC 822 message. Line breaks in the subject are
// folded to spaces and non-ASCII subjects are Q-encoded.
func Message(to []string, subject, body string) []byte {
	subject = mime.QEncoding.Encode("utf-8", headerBreaks.Replace(subject))
	return []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		strings.Join(to, ", "), subject, strings.ReplaceAll(body, "\n", "\r\n")))
}

func Send(server string, port int, username, password, to, subject, body string) error {
	recipients, err := Recipients(to)
	if err != nil {
		return err
	}
	auth := smtp.PlainAuth("", username, password, server)
	addr := fmt.Sprintf("%s:%d", server, port)
	return smtp.SendMail(addr, auth, username, recipients, Message(recipients, subject, body))
}
