package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/mockserver"
	"github.com/saravenpi/wavechat/internal/models"
)

func newBackend(t *testing.T) (*api.Client, *mockserver.Server) {
	t.Helper()
	db, err := mockserver.OpenStore(":memory:")
	require.NoError(t, err)

	backend := mockserver.New(db, zerolog.Nop())
	require.NoError(t, backend.Seed())

	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	return api.NewClient(srv.URL+"/", 5*time.Second, api.WithLogger(zerolog.Nop())), backend
}

func TestGetInitialContactsMarksOnline(t *testing.T) {
	client, backend := newBackend(t)
	backend.SetOnline(2, true)

	resp, err := client.GetInitialContacts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "Alice Support", resp.Users[0].Name)
	assert.True(t, resp.Users[0].Online)
	assert.ElementsMatch(t, []int64{1, 2}, resp.OnlineUsers)
}

func TestBatchImportAndDelete(t *testing.T) {
	client, _ := newBackend(t)
	ctx := context.Background()

	res, err := client.AddBatchUsers(ctx, api.BatchUsersRequest{
		StartingID: 100,
		Users: []models.ImportEntry{
			{Name: "Ada", PhoneNumber: "+15551112222"},
			{PhoneNumber: "+15551113333"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "2 users imported successfully", res.Message)

	contacts, err := client.GetInitialContacts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, contacts.Users, 3)

	res, err = client.DeleteBatchUsers(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

func TestErrorsCarryBackendMessage(t *testing.T) {
	client, _ := newBackend(t)

	_, err := client.Broadcast(context.Background(), api.BroadcastRequest{Message: " ", SenderID: 1})
	require.Error(t, err)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Message cannot be empty", api.MessageOf(err, "fallback"))

	assert.Equal(t, "fallback", api.MessageOf(errors.New("dial tcp: refused"), "fallback"))
}

func TestErrorFieldFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, api.WithLogger(zerolog.Nop()))
	_, err := client.GetReplies(context.Background())
	assert.Equal(t, "upstream down", api.MessageOf(err, "x"))
	assert.Contains(t, err.Error(), "502")
}

func TestRequestIDHeaderSent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"replies":[]}`))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, api.WithLogger(zerolog.Nop()))
	replies, err := client.GetReplies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, replies)
	assert.Len(t, got, 36)
}

func TestReplyLifecycle(t *testing.T) {
	client, _ := newBackend(t)
	ctx := context.Background()

	require.NoError(t, client.AddReply(ctx, "Sure thing"))
	replies, err := client.GetReplies(ctx)
	require.NoError(t, err)
	require.Len(t, replies, 4)

	last := replies[3]
	require.NoError(t, client.UpdateReply(ctx, last.ID, "Sure thing!"))
	require.NoError(t, client.DeleteReply(ctx, replies[0].ID))

	replies, err = client.GetReplies(ctx)
	require.NoError(t, err)
	require.Len(t, replies, 3)
	assert.Equal(t, "Sure thing!", replies[2].Content)

	err = client.DeleteReply(ctx, 999)
	assert.Equal(t, "Reply not found", api.MessageOf(err, ""))
}

func TestDeleteMessageThenRefetch(t *testing.T) {
	client, _ := newBackend(t)
	ctx := context.Background()

	messages, err := client.GetMessages(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.MessageText, messages[0].Type)
	assert.EqualValues(t, 2, messages[0].SenderID)
	assert.EqualValues(t, 1, messages[0].RecipientID)

	res, err := client.DeleteMessage(ctx, messages[1].ID)
	require.NoError(t, err)
	assert.True(t, res.Status)

	res, err = client.DeleteMessage(ctx, messages[1].ID)
	require.NoError(t, err)
	assert.False(t, res.Status)

	messages, err = client.GetMessages(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestValidateWhatsAppProfiles(t *testing.T) {
	client, _ := newBackend(t)

	checks, err := client.ValidateWhatsAppProfiles(context.Background(), []string{"+15551234567", "42"})
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.True(t, checks[0].Valid)
	assert.False(t, checks[1].Valid)
}
