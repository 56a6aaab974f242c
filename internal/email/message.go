package email

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"text/template"
	"time"

	"newsdesk/portal/internal/models"
)

// Render executes the template's subject and body against data.
// Missing keys are an error so a broken template never reaches a customer.
func Render(tmpl *models.EmailTemplate, data map[string]interface{}) (subject, body string, err error) {
	subject, err = execute(tmpl.TemplateID+":subject", tmpl.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err = execute(tmpl.TemplateID+":body", tmpl.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func execute(name, src string, data map[string]interface{}) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// BuildMessage assembles a plain-text RFC 5322 message.
func BuildMessage(from, to, subject, body string, now time.Time) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&sb, "Date: %s\r\n", now.Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\r\n")
	}
	return []byte(sb.String())
}
