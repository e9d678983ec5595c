// Package actions holds the operator workflows shared by the terminal UI and
// the headless subcommands. Each one is a single backend call plus the local
// storage bookkeeping around it.
package actions

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/contacts"
	"github.com/saravenpi/wavechat/internal/logging"
	"github.com/saravenpi/wavechat/internal/models"
	"github.com/saravenpi/wavechat/internal/storage"
)

var (
	ErrEmptyMessage = errors.New("please enter a message to broadcast")
	ErrNoUser       = errors.New("no current user, run `wavechat use <userId>` first")
	ErrNothingToAdd = errors.New("no valid phone numbers to import")
)

func logger() *zerolog.Logger {
	l := logging.Component("actions")
	return &l
}

// ResolveUserID returns the stored current user, falling back to (and
// persisting) the configured one.
func ResolveUserID(store *storage.Store, configured int64) (int64, error) {
	id, err := store.UserID()
	if err != nil {
		return 0, err
	}
	if id > 0 {
		return id, nil
	}
	if configured <= 0 {
		return 0, ErrNoUser
	}
	if err := store.SetUserID(configured); err != nil {
		return 0, err
	}
	return configured, nil
}

// BroadcastPlan is what a broadcast will send besides the text.
type BroadcastPlan struct {
	BotCount int
	Delays   []int64
}

// PlanBroadcast pairs the first BotCount replies, in ascending id order, with
// their stored delays in milliseconds. The backend applies delays[i] to the
// i-th reply, so a reply without a stored delay contributes 0.
func PlanBroadcast(store *storage.Store, replies []models.Reply) (BroadcastPlan, error) {
	botCount, err := store.BotCount()
	if err != nil {
		return BroadcastPlan{}, err
	}

	sorted := slices.Clone(replies)
	slices.SortFunc(sorted, func(a, b models.Reply) int { return cmp.Compare(a.ID, b.ID) })

	plan := BroadcastPlan{BotCount: botCount, Delays: []int64{}}
	for _, r := range sorted {
		if len(plan.Delays) == botCount {
			break
		}
		d, err := store.Delay(r.ID)
		if err != nil {
			return BroadcastPlan{}, err
		}
		plan.Delays = append(plan.Delays, d.Milliseconds())
	}
	return plan, nil
}

// Broadcast sends message to every contact of userID.
func Broadcast(ctx context.Context, client *api.Client, store *storage.Store, userID int64, message string) (*api.Result, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if userID <= 0 {
		return nil, ErrNoUser
	}

	replies, err := client.GetReplies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot replies: %w", err)
	}
	plan, err := PlanBroadcast(store, replies)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot settings: %w", err)
	}

	res, err := client.Broadcast(ctx, api.BroadcastRequest{
		Message:  message,
		SenderID: userID,
		BotCount: plan.BotCount,
		Delays:   plan.Delays,
	})
	if err != nil {
		return nil, err
	}

	logger().Info().
		Int64(logging.FieldUserID, userID).
		Int(logging.FieldCount, res.Count).
		Int("bot_count", plan.BotCount).
		Msg("broadcast sent")
	return res, nil
}

// Import sends entries as one batch and records how many were imported.
func Import(ctx context.Context, client *api.Client, store *storage.Store, startingID int64, entries []models.ImportEntry) (*api.Result, error) {
	if len(entries) == 0 {
		return nil, ErrNothingToAdd
	}

	res, err := client.AddBatchUsers(ctx, api.BatchUsersRequest{StartingID: startingID, Users: entries})
	if err != nil {
		return nil, err
	}

	// The backend skips numbers it already knows; its count wins when given.
	imported := len(entries)
	if res.Count > 0 {
		imported = res.Count
	}
	if err := store.SetImportedNumberCount(imported); err != nil {
		logger().Warn().Err(err).Msg("failed to record imported number count")
	}
	return res, nil
}

// ValidatePreview drops the entries the backend reports as having no
// WhatsApp profile. It returns the filtered preview and the numbers removed.
func ValidatePreview(ctx context.Context, client *api.Client, preview contacts.Preview) (contacts.Preview, []string, error) {
	if len(preview.Entries) == 0 {
		return preview, nil, nil
	}

	checks, err := client.ValidateWhatsAppProfiles(ctx, preview.Numbers())
	if err != nil {
		return preview, nil, err
	}

	valid := make(map[string]bool, len(checks))
	for _, c := range checks {
		valid[c.Number] = c.Valid
	}

	var removed []string
	filtered := preview.Filter(func(phone string) bool {
		if valid[phone] {
			return true
		}
		removed = append(removed, phone)
		return false
	})
	return filtered, removed, nil
}

// DeleteAll removes every contact from startID on.
func DeleteAll(ctx context.Context, client *api.Client, startID int64) (*api.Result, error) {
	res, err := client.DeleteBatchUsers(ctx, startID)
	if err != nil {
		return nil, err
	}
	logger().Info().Int64("start_id", startID).Int(logging.FieldCount, res.Count).Msg("contacts deleted")
	return res, nil
}
