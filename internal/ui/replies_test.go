package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/wavechat/internal/storage"
)

func loadReplies(t *testing.T, env *Env) RepliesModel {
	t.Helper()
	m := NewRepliesModel(env)
	updated, _ := m.Update(m.loadRepliesCmd()())
	m = updated.(RepliesModel)
	require.NoError(t, m.err)
	require.Len(t, m.items, 3)
	return m
}

func typeInto(t *testing.T, m RepliesModel, value string) RepliesModel {
	t.Helper()
	require.NotEqual(t, modeNone, m.mode)
	m.input.SetValue(value)
	updated, _ := m.Update(key("enter"))
	return updated.(RepliesModel)
}

func TestSetDelayPersistsSeconds(t *testing.T) {
	env := newMockEnv(t)
	m := loadReplies(t, env)
	id := m.items[0].reply.ID

	updated, _ := m.Update(key("s"))
	m = typeInto(t, updated.(RepliesModel), "4")
	assert.Equal(t, modeNone, m.mode)

	d, err := env.Store.Delay(id)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, d)

	raw, ok, err := env.Store.Get(storage.DelayKey(id))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4000", raw)

	// A fresh screen reads the same value back.
	m = loadReplies(t, env)
	assert.Equal(t, 4*time.Second, m.items[0].delay)
	assert.Contains(t, m.items[0].Description(), "delay 4s")
}

func TestDelayAdjustClampsAtZero(t *testing.T) {
	env := newMockEnv(t)
	m := loadReplies(t, env)
	id := m.items[0].reply.ID

	updated, _ := m.Update(key("+"))
	m = updated.(RepliesModel)
	updated, _ = m.Update(key("+"))
	m = updated.(RepliesModel)
	d, _ := env.Store.Delay(id)
	assert.Equal(t, 2*time.Second, d)

	updated, _ = m.Update(key("s"))
	m = typeInto(t, updated.(RepliesModel), "-3")
	d, _ = env.Store.Delay(id)
	assert.Zero(t, d)
	assert.Zero(t, m.items[0].delay)
}

func TestSetDelayRefusesHugeValues(t *testing.T) {
	env := newMockEnv(t)
	m := loadReplies(t, env)
	id := m.items[0].reply.ID
	require.NoError(t, env.Store.SetDelay(id, 2*time.Second))
	m = loadReplies(t, env)

	updated, _ := m.Update(key("s"))
	m = typeInto(t, updated.(RepliesModel), "10000000000")

	d, err := env.Store.Delay(id)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
	assert.Equal(t, 2*time.Second, m.items[0].delay)
	assert.Contains(t, m.items[0].Description(), "delay 2s")
	assert.Equal(t, toastError, m.toast.kind)
	assert.Equal(t, "Delay cannot exceed 86400s", m.toast.text)

	updated, _ = m.Update(key("s"))
	m = typeInto(t, updated.(RepliesModel), "86400")
	d, _ = env.Store.Delay(id)
	assert.Equal(t, 24*time.Hour, d)
}

func TestBotCountIsClampedToReplies(t *testing.T) {
	env := newMockEnv(t)
	m := loadReplies(t, env)

	updated, _ := m.Update(key("c"))
	m = typeInto(t, updated.(RepliesModel), "10")
	assert.Equal(t, 3, m.botCount)

	n, err := env.Store.BotCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	updated, _ = m.Update(key("c"))
	m = typeInto(t, updated.(RepliesModel), "0")
	assert.Equal(t, 1, m.botCount)
}

func TestResetDelays(t *testing.T) {
	env := newMockEnv(t)
	m := loadReplies(t, env)
	require.NoError(t, env.Store.SetDelay(m.items[1].reply.ID, 3*time.Second))
	m = loadReplies(t, env)

	updated, _ := m.Update(key("R"))
	m = updated.(RepliesModel)

	keys, err := env.Store.Keys(storage.DelayPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
	for _, item := range m.items {
		assert.Zero(t, item.delay)
	}
}

func TestDeleteReplyClearsDelays(t *testing.T) {
	env := newMockEnv(t)
	m := loadReplies(t, env)
	require.NoError(t, env.Store.SetDelay(m.items[2].reply.ID, time.Second))

	updated, cmd := m.Update(key("d"))
	m = updated.(RepliesModel)
	assert.Nil(t, cmd)
	require.True(t, m.confirmDelete)

	updated, cmd = m.Update(key("y"))
	m = updated.(RepliesModel)
	require.NotNil(t, cmd)

	changed := find[replyChangedMsg](t, collect(cmd))
	require.NoError(t, changed.err)

	keys, err := env.Store.Keys(storage.DelayPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)

	m = NewRepliesModel(env)
	updated, _ = m.Update(m.loadRepliesCmd()())
	assert.Len(t, updated.(RepliesModel).items, 2)
}

func TestAddReplyIgnoresEmptyContent(t *testing.T) {
	env := newMockEnv(t)
	m := loadReplies(t, env)

	updated, _ := m.Update(key("a"))
	m = updated.(RepliesModel)
	m.input.SetValue("   ")
	updated, cmd := m.Update(key("enter"))
	m = updated.(RepliesModel)
	assert.Nil(t, cmd)
	assert.Equal(t, modeNone, m.mode)
}
