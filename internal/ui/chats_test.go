package ui

import (
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/models"
	"github.com/saravenpi/wavechat/internal/poller"
)

func countingBackend(calls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/message/broadcast") {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Broadcast sent to 2 contacts","count":2}`))
	})
}

func TestBroadcastSendingGuard(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, countingBackend(&calls))

	updated, _ := NewChatListModel(env).Update(key("b"))
	m := updated.(ChatListModel)
	require.True(t, m.broadcast.open)
	m.broadcast.textarea.SetValue("hello everyone")

	updated, first := m.Update(key("ctrl+s"))
	m = updated.(ChatListModel)
	require.NotNil(t, first)
	assert.True(t, m.broadcast.sending)

	updated, second := m.Update(key("ctrl+s"))
	m = updated.(ChatListModel)
	assert.Nil(t, second, "a send in flight blocks another")

	sent := find[broadcastSentMsg](t, collect(first))
	assert.Equal(t, int32(1), calls.Load())

	updated, _ = m.Update(sent)
	m = updated.(ChatListModel)
	assert.False(t, m.broadcast.sending)
	assert.False(t, m.broadcast.open)
	assert.Equal(t, "Broadcast sent to 2 contacts", m.toast.text)
	assert.Equal(t, toastSuccess, m.toast.kind)
}

func TestBroadcastWithoutMessageStillConfirms(t *testing.T) {
	env := newMockEnv(t)
	m := NewChatListModel(env)
	m.broadcast.sending = true

	updated, _ := m.Update(broadcastSentMsg{res: &api.Result{}})
	m = updated.(ChatListModel)
	assert.False(t, m.broadcast.sending)
	assert.True(t, m.toast.visible())
	assert.Equal(t, toastSuccess, m.toast.kind)
	assert.Equal(t, "Broadcast sent successfully", m.toast.text)
}

func TestChatItemTruncatesAboutOnRunes(t *testing.T) {
	item := chatItem{contact: models.Contact{
		Name:        "Zoé",
		PhoneNumber: "+15550000003",
		About:       strings.Repeat("été ", 20),
	}}

	desc := item.Description()
	assert.True(t, utf8.ValidString(desc))
	assert.True(t, strings.HasSuffix(desc, "..."))
	assert.True(t, strings.HasPrefix(desc, "+15550000003 • été"))

	short := chatItem{contact: models.Contact{PhoneNumber: "+1", About: "ça va"}}
	assert.Equal(t, "+1 • ça va", short.Description())
}

func TestBroadcastEmptyMessageIsRejectedLocally(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, countingBackend(&calls))

	updated, _ := NewChatListModel(env).Update(key("b"))
	m := updated.(ChatListModel)
	m.broadcast.textarea.SetValue("   \n ")

	updated, _ = m.Update(key("ctrl+s"))
	m = updated.(ChatListModel)

	assert.False(t, m.broadcast.sending)
	assert.True(t, m.broadcast.open)
	assert.Equal(t, toastError, m.toast.kind)
	assert.Equal(t, "Please enter a message to broadcast", m.toast.text)
	assert.Zero(t, calls.Load())
}

func TestChatListIgnoresOtherPollers(t *testing.T) {
	env := newMockEnv(t)
	m := NewChatListModel(env)

	contacts := []models.Contact{{ID: 2, Name: "Alice", Online: true}, {ID: 3, Name: "Bob"}}

	updated, _ := m.Update(poller.ContactsMsg{ID: m.poller.ID() + 1000, Contacts: contacts})
	m = updated.(ChatListModel)
	assert.Empty(t, m.contacts)

	updated, _ = m.Update(poller.ContactsMsg{ID: m.poller.ID(), Contacts: contacts})
	m = updated.(ChatListModel)
	assert.Len(t, m.contacts, 2)
	assert.Equal(t, "Chats - 2 contacts, 1 online", m.list.Title)
	assert.False(t, m.loading)
}

func TestChatListKeepsContactsOnFetchError(t *testing.T) {
	env := newMockEnv(t)
	m := NewChatListModel(env)

	updated, _ := m.Update(poller.ContactsMsg{ID: m.poller.ID(), Contacts: []models.Contact{{ID: 2, Name: "Alice"}}})
	m = updated.(ChatListModel)

	updated, _ = m.Update(poller.ContactsMsg{ID: m.poller.ID(), Err: assert.AnError})
	m = updated.(ChatListModel)
	assert.Len(t, m.contacts, 1)
	assert.False(t, m.toast.visible(), "poll failures are silent")
}

func TestDeleteAllAsksForConfirmation(t *testing.T) {
	env := newMockEnv(t)
	m := NewChatListModel(env)

	updated, cmd := m.Update(key("D"))
	m = updated.(ChatListModel)
	assert.Nil(t, cmd)
	assert.True(t, m.confirmDeleteAll)

	updated, cmd = m.Update(key("n"))
	m = updated.(ChatListModel)
	assert.Nil(t, cmd)
	assert.False(t, m.confirmDeleteAll)

	updated, _ = m.Update(key("D"))
	m = updated.(ChatListModel)
	updated, cmd = m.Update(key("y"))
	m = updated.(ChatListModel)
	require.NotNil(t, cmd)
	assert.True(t, m.deletingAll)

	deleted := find[contactsDeletedMsg](t, collect(cmd))
	require.NoError(t, deleted.err)

	updated, _ = m.Update(deleted)
	m = updated.(ChatListModel)
	assert.False(t, m.deletingAll)
	assert.Equal(t, toastSuccess, m.toast.kind)
}
