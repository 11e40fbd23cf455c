// internal/mailer/mailer_test.go
package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/database"
	"github.com/mwiater/pythia/internal/errdefs"
)

func TestClosingNotice(t *testing.T) {
	contact := &database.Contact{
		FirstName: "Alex",
		LastName:  "Rivera",
		Email:     "alex.rivera@example.com",
		Question:  "What is covered under vision benefits?",
		Answer:    "Vision benefits cover annual exams.",
	}

	msg := ClosingNotice(contact)
	assert.Equal(t, "alex.rivera@example.com", msg.To)
	assert.Equal(t, "Your request has been resolved", msg.Subject)
	assert.Contains(t, msg.Body, "Dear Alex Rivera,")
	assert.Contains(t, msg.Body, "What is covered under vision benefits?")
	assert.Contains(t, msg.Body, "Vision benefits cover annual exams.")
	assert.Contains(t, msg.Body, "Your Helpdesk Team")
}

func TestClosingNoticeWithoutAnswer(t *testing.T) {
	msg := ClosingNotice(&database.Contact{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Question: "Where is my ID card?"})
	assert.NotContains(t, msg.Body, "Our answer:")
	assert.Contains(t, msg.Body, "Dear Sam Lee,")
}

func TestNilClientDropsMessages(t *testing.T) {
	var client *Client
	assert.Nil(t, NewClient(appconfig.Config{}, nil))
	assert.NoError(t, client.Send(context.Background(), Message{To: "someone@example.com"}))
}

func TestSend(t *testing.T) {
	var got Message
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	cfg := appconfig.Config{Mailer: appconfig.MailerConfig{
		Endpoint: server.URL,
		APIKey:   "mail-key",
		From:     "helpdesk@example.com",
	}}
	client := NewClient(cfg, nil)
	require.NotNil(t, client)

	err := client.Send(context.Background(), Message{To: "alex.rivera@example.com", Subject: "s", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer mail-key", auth)
	assert.Equal(t, "helpdesk@example.com", got.From, "configured sender fills empty From")
	assert.Equal(t, "alex.rivera@example.com", got.To)
}

func TestSendValidatesRecipient(t *testing.T) {
	cfg := appconfig.Config{Mailer: appconfig.MailerConfig{Endpoint: "http://localhost:9"}}
	err := NewClient(cfg, nil).Send(context.Background(), Message{})
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
}

func TestSendClassifiesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := appconfig.Config{Mailer: appconfig.MailerConfig{Endpoint: server.URL}}
	err := NewClient(cfg, nil).Send(context.Background(), Message{To: "x@example.com"})
	require.Error(t, err)
	assert.True(t, errdefs.IsRemoteService(err))
}
