package actions

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/contacts"
	"github.com/saravenpi/wavechat/internal/mockserver"
	"github.com/saravenpi/wavechat/internal/models"
	"github.com/saravenpi/wavechat/internal/storage"
)

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newClient(t *testing.T) *api.Client {
	t.Helper()
	db, err := mockserver.OpenStore(":memory:")
	require.NoError(t, err)
	backend := mockserver.New(db, zerolog.Nop())
	require.NoError(t, backend.Seed())

	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, 5*time.Second, api.WithLogger(zerolog.Nop()))
}

func TestResolveUserID(t *testing.T) {
	store := newStore(t)

	_, err := ResolveUserID(store, 0)
	assert.ErrorIs(t, err, ErrNoUser)

	id, err := ResolveUserID(store, 9)
	require.NoError(t, err)
	assert.EqualValues(t, 9, id)

	id, err = ResolveUserID(store, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 9, id, "stored id wins over config")
}

func TestPlanBroadcastTruncatesToBotCount(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.SetDelay(3, 3*time.Second))
	require.NoError(t, store.SetDelay(1, time.Second))
	require.NoError(t, store.SetDelay(2, 2*time.Second))
	require.NoError(t, store.SetBotCount(2))

	replies := []models.Reply{{ID: 3}, {ID: 1}, {ID: 2}}
	plan, err := PlanBroadcast(store, replies)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.BotCount)
	assert.Equal(t, []int64{1000, 2000}, plan.Delays)
}

func TestPlanBroadcastKeepsReplyPositions(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.SetDelay(3, 5*time.Second))
	replies := []models.Reply{{ID: 1}, {ID: 2}, {ID: 3}}

	require.NoError(t, store.SetBotCount(1))
	plan, err := PlanBroadcast(store, replies)
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, plan.Delays, "reply #1 has no delay of its own")

	require.NoError(t, store.SetBotCount(3))
	plan, err = PlanBroadcast(store, replies)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 5000}, plan.Delays)

	plan, err = PlanBroadcast(store, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{}, plan.Delays)
}

func TestBroadcastSendsPlan(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"replies":[{"id":7,"content":"later"},{"id":5,"content":"first"}]}`))
			return
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write([]byte(`{"message":"Broadcast sent to 4 contacts","count":4}`))
	}))
	defer srv.Close()

	store := newStore(t)
	require.NoError(t, store.SetDelay(5, 1500*time.Millisecond))
	require.NoError(t, store.SetDelay(7, 9*time.Second))
	client := api.NewClient(srv.URL, time.Second, api.WithLogger(zerolog.Nop()))

	res, err := Broadcast(context.Background(), client, store, 1, "hi")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Count)
	assert.JSONEq(t, `{"message":"hi","senderId":1,"botCount":1,"delays":[1500]}`, body)
}

func TestBroadcastRejectsEmptyWithoutCalling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, api.WithLogger(zerolog.Nop()))
	_, err := Broadcast(context.Background(), client, newStore(t), 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = Broadcast(context.Background(), client, newStore(t), 0, "hello")
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Zero(t, calls.Load())
}

func TestImportRecordsCount(t *testing.T) {
	client := newClient(t)
	store := newStore(t)

	_, err := Import(context.Background(), client, store, 100, nil)
	assert.ErrorIs(t, err, ErrNothingToAdd)

	res, err := Import(context.Background(), client, store, 100, []models.ImportEntry{
		{Name: "A", PhoneNumber: "+15557770001"},
		{Name: "B", PhoneNumber: "+15557770002"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	n, err := store.ImportedNumberCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err = DeleteAll(context.Background(), client, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

func TestImportRecordsBackendCount(t *testing.T) {
	client := newClient(t)
	store := newStore(t)

	// The second number belongs to a seeded user.
	res, err := Import(context.Background(), client, store, 100, []models.ImportEntry{
		{Name: "A", PhoneNumber: "+15557770001"},
		{Name: "B", PhoneNumber: "+15550000002"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	n, err := store.ImportedNumberCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestValidatePreview(t *testing.T) {
	client := newClient(t)
	preview := contacts.Preview{Entries: []models.ImportEntry{
		{PhoneNumber: "+15551234567"},
		{PhoneNumber: "+1234567890123456"},
	}}

	filtered, removed, err := ValidatePreview(context.Background(), client, preview)
	require.NoError(t, err)
	assert.Equal(t, []string{"+15551234567"}, filtered.Numbers())
	assert.Equal(t, []string{"+1234567890123456"}, removed)
}
