package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/models"
)

type failingSender struct{ err error }

func (f failingSender) Send(context.Context, []string, string, []byte) error { return f.err }

type recordingSender struct{ subjects []string }

func (r *recordingSender) Send(_ context.Context, _ []string, subject string, _ []byte) error {
	r.subjects = append(r.subjects, subject)
	return nil
}

func TestRender(t *testing.T) {
	tmpl := &models.EmailTemplate{
		TemplateID: models.TemplatePayRequestAccepted,
		Subject:    "Payment for {{.period}} received",
		Body:       "Hello {{.name}}, we received {{.amount}}.",
	}
	subject, body, err := Render(tmpl, map[string]interface{}{"period": "03/2026", "name": "Asha", "amount": "450.00"})
	require.NoError(t, err)
	assert.Equal(t, "Payment for 03/2026 received", subject)
	assert.Equal(t, "Hello Asha, we received 450.00.", body)

	_, _, err = Render(tmpl, map[string]interface{}{"period": "03/2026"})
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	msg := string(BuildMessage("noreply@x.test", "a@x.test", "Hi", "line1\nline2", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, strings.HasPrefix(msg, "To: a@x.test\r\nFrom: noreply@x.test\r\nSubject: Hi\r\n"))
	assert.Contains(t, msg, "\r\n\r\nline1\r\nline2\r\n")
}

func TestCompositeSender_CollectsErrors(t *testing.T) {
	rec := &recordingSender{}
	cs := NewCompositeEmailSender(failingSender{err: errors.New("smtp down")}, rec)
	err := cs.Send(context.Background(), []string{"a@x.test"}, "S", []byte("m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, []string{"S"}, rec.subjects)

	assert.Error(t, NewCompositeEmailSender().Send(context.Background(), nil, "", nil))
}

func TestRedisSender(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisSender(rdb, "noreply@x.test")
	require.NoError(t, s.Send(context.Background(), []string{"Cust@X.test"}, "Bill ready", []byte("raw")))

	got, err := LatestCaptured(context.Background(), rdb, "cust@x.test")
	require.NoError(t, err)
	assert.Equal(t, "Bill ready", got.Subject)
	assert.Equal(t, "raw", got.Message)
	assert.True(t, mr.TTL(MockEmailKey("cust@x.test")) > 0)
}

func TestFileEmailSender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail", "out.log")
	fs, err := NewFileEmailSender(path)
	require.NoError(t, err)
	require.NoError(t, fs.Send(context.Background(), []string{"a@x.test"}, "Subj", []byte("body\r\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Subject: Subj")
	assert.Contains(t, string(data), "body")

	_, err = NewFileEmailSender("  ")
	assert.Error(t, err)
}

func TestNewSender_NoSMTPUsesLogging(t *testing.T) {
	cfg := &config.Config{SmtpFromAddress: "noreply@x.test"}
	s := NewSMTPSender(cfg)
	_, ok := s.(*LoggingSender)
	assert.True(t, ok)

	rec := &recordingSender{}
	composite, err := NewSender(cfg, rec)
	require.NoError(t, err)
	require.NoError(t, composite.Send(context.Background(), []string{"a@x.test"}, "S", []byte("m")))
	assert.Equal(t, []string{"S"}, rec.subjects)
}
