package ui

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/wavechat/internal/models"
)

func loadChat(t *testing.T, env *Env, contact models.Contact) ChatModel {
	t.Helper()
	m := NewChatModel(env, contact)
	updated, _ := m.Update(m.fetchMessagesCmd()())
	m = updated.(ChatModel)
	require.NoError(t, m.err)
	return m
}

func TestDeleteOwnMessage(t *testing.T) {
	env := newMockEnv(t)
	m := loadChat(t, env, models.Contact{ID: 2, Name: "Alice Support"})
	require.Len(t, m.messages, 2)

	own, ok := m.selected()
	require.True(t, ok)
	require.Equal(t, env.UserID, own.SenderID)

	updated, cmd := m.Update(key("d"))
	m = updated.(ChatModel)
	assert.Nil(t, cmd)
	assert.Equal(t, own.ID, m.contextTarget)

	updated, cmd = m.Update(key("d"))
	m = updated.(ChatModel)
	require.NotNil(t, cmd)
	assert.True(t, m.deleting[own.ID])

	deleted := find[messageDeletedMsg](t, collect(cmd))
	require.NoError(t, deleted.err)
	assert.True(t, deleted.res.Status)

	updated, refetch := m.Update(deleted)
	m = updated.(ChatModel)
	assert.Len(t, m.messages, 1)
	assert.Empty(t, m.deleting)
	assert.Zero(t, m.contextTarget)
	require.NotNil(t, refetch)

	updated, _ = m.Update(find[messagesFetchedMsg](t, collect(refetch)))
	m = updated.(ChatModel)
	assert.Len(t, m.messages, 1)
}

func TestDeleteRefusedKeepsMessage(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodDelete {
			_, _ = w.Write([]byte(`{"status":false,"message":"Message is too old"}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":7,"senderId":1,"recieverId":2,"message":"hi","type":"text","messageStatus":"sent"}]}`))
	}))
	m := loadChat(t, env, models.Contact{ID: 2, Name: "Bob"})

	updated, _ := m.Update(key("d"))
	m = updated.(ChatModel)
	updated, cmd := m.Update(key("enter"))
	m = updated.(ChatModel)
	require.NotNil(t, cmd)

	updated, _ = m.Update(find[messageDeletedMsg](t, collect(cmd)))
	m = updated.(ChatModel)
	assert.Len(t, m.messages, 1)
	assert.Empty(t, m.deleting)
	assert.Zero(t, m.contextTarget)
	assert.Equal(t, "Message is too old", m.toast.text)
}

func TestContextActionOnlyOnOwnMessages(t *testing.T) {
	env := newMockEnv(t)
	m := loadChat(t, env, models.Contact{ID: 2, Name: "Alice Support"})

	updated, _ := m.Update(key("up"))
	m = updated.(ChatModel)
	theirs, ok := m.selected()
	require.True(t, ok)
	require.NotEqual(t, env.UserID, theirs.SenderID)

	updated, cmd := m.Update(key("d"))
	m = updated.(ChatModel)
	assert.Nil(t, cmd)
	assert.Zero(t, m.contextTarget)
}

func TestMessageBodyPlaceholders(t *testing.T) {
	assert.Equal(t, "🖼  [image]", messageBody(models.Message{Type: models.MessageImage, Body: "x.png"}, 40))
	assert.Equal(t, "🎤 [voice message]", messageBody(models.Message{Type: models.MessageAudio}, 40))
	assert.Equal(t, "one two\nthree", messageBody(models.Message{Type: models.MessageText, Body: "one two three"}, 8))
}
