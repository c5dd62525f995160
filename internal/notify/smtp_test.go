package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPNotifier_Send(t *testing.T) {
	notifier := NewSMTPNotifier(SMTPConfig{
		Host: "mail.fleet.test",
		Port: 587,
		From: "alerts@fleet.test",
	})
	notifier.now = func() time.Time { return time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC) }

	var gotAddr string
	var gotTo []string
	var gotMsg string
	notifier.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotMsg = string(msg)
		assert.Nil(t, a)
		assert.Equal(t, "alerts@fleet.test", from)
		return nil
	}

	err := notifier.Send(context.Background(), "ops@fleet.test, chief@fleet.test", "Maintenance alerts", []AlertItem{
		{PlateNumber: "KZ-001", Kind: "DISTANCE", Severity: "DUE_SOON", Message: "KZ-001: preventive maintenance due in 1000 km"},
		{PlateNumber: "KZ-002", Kind: "DISTANCE", Severity: "OVERDUE", Message: "KZ-002: preventive maintenance overdue by 1500 km"},
	})
	require.NoError(t, err)

	assert.Equal(t, "mail.fleet.test:587", gotAddr)
	assert.Equal(t, []string{"ops@fleet.test", "chief@fleet.test"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Maintenance alerts\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, gotMsg, "1 overdue, 1 due soon")
	assert.Contains(t, gotMsg, "due in 1000 km")
	assert.Contains(t, gotMsg, "overdue by 1500 km")
}

func TestSMTPNotifier_SendFailure(t *testing.T) {
	notifier := NewSMTPNotifier(SMTPConfig{Host: "mail.fleet.test", Port: 25, From: "alerts@fleet.test", User: "bot", Password: "pw"})
	notifier.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := notifier.Send(context.Background(), "ops@fleet.test", "Maintenance alerts", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPNotifier_RequiresRecipient(t *testing.T) {
	notifier := NewSMTPNotifier(SMTPConfig{Host: "mail.fleet.test", Port: 25, From: "alerts@fleet.test"})
	err := notifier.Send(context.Background(), " , ", "Maintenance alerts", nil)
	assert.Error(t, err)
}
