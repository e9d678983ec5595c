package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/saravenpi/wavechat/internal/actions"
	"github.com/saravenpi/wavechat/internal/api"
	"github.com/saravenpi/wavechat/internal/config"
	"github.com/saravenpi/wavechat/internal/contacts"
	"github.com/saravenpi/wavechat/internal/logging"
	"github.com/saravenpi/wavechat/internal/mockserver"
	"github.com/saravenpi/wavechat/internal/models"
	"github.com/saravenpi/wavechat/internal/storage"
	"github.com/saravenpi/wavechat/internal/ui"
)

func runCommand(env *ui.Env, name string, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch name {
	case "use":
		return runUse(env.Store, args)
	case "import":
		return runImport(ctx, env, args)
	case "broadcast":
		return runBroadcast(ctx, env, args)
	case "status":
		return runStatus(ctx, env)
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", name)
	}
}

func runUse(store *storage.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: wavechat use <userId>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	if err := store.SetUserID(id); err != nil {
		return err
	}
	fmt.Printf("Current user set to #%d\n", id)
	return nil
}

func runImport(ctx context.Context, env *ui.Env, args []string) error {
	var path string
	validate := false
	for _, arg := range args {
		if arg == "--validate" {
			validate = true
			continue
		}
		path = arg
	}
	if path == "" {
		return fmt.Errorf("usage: wavechat import <file.csv> [--validate]")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	preview, err := contacts.ParseCSV(f)
	f.Close()
	if err != nil {
		return err
	}

	for _, r := range preview.Rejected {
		fmt.Printf("  skipped line %d: %s\n", r.Line, r.Text)
	}

	if validate {
		var removed []string
		preview, removed, err = actions.ValidatePreview(ctx, env.Client, preview)
		if err != nil {
			return fmt.Errorf("failed to validate numbers: %s", api.MessageOf(err, err.Error()))
		}
		for _, n := range removed {
			fmt.Printf("  no WhatsApp profile: %s\n", n)
		}
	}

	res, err := actions.Import(ctx, env.Client, env.Store, env.Config.Import.StartingID, preview.Entries)
	if err != nil {
		return errors.New(api.MessageOf(err, err.Error()))
	}
	fmt.Println(res.Message)
	return nil
}

func runBroadcast(ctx context.Context, env *ui.Env, args []string) error {
	userID, err := actions.ResolveUserID(env.Store, env.Config.UserID)
	if err != nil {
		return err
	}

	res, err := actions.Broadcast(ctx, env.Client, env.Store, userID, strings.Join(args, " "))
	if err != nil {
		return errors.New(api.MessageOf(err, err.Error()))
	}
	fmt.Println(res.Message)
	return nil
}

func runStatus(ctx context.Context, env *ui.Env) error {
	userID, err := actions.ResolveUserID(env.Store, env.Config.UserID)
	if err != nil {
		return err
	}

	var (
		list    *api.ContactsResponse
		replies []models.Reply
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = env.Client.GetInitialContacts(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		replies, err = env.Client.GetReplies(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to reach %s: %w", env.Client.BaseURL(), err)
	}

	online := 0
	for _, c := range list.Users {
		if c.Online {
			online++
		}
	}

	plan, err := actions.PlanBroadcast(env.Store, replies)
	if err != nil {
		return err
	}
	stored, err := env.Store.Delays()
	if err != nil {
		return err
	}
	imported, err := env.Store.ImportedNumberCount()
	if err != nil {
		return err
	}

	fmt.Printf("Backend:        %s\n", env.Client.BaseURL())
	fmt.Printf("Current user:   #%d\n", userID)
	fmt.Printf("Contacts:       %d (%d online)\n", len(list.Users), online)
	fmt.Printf("Bot replies:    %d\n", len(replies))
	fmt.Printf("Bot count:      %d\n", plan.BotCount)
	fmt.Printf("Delays (ms):    %v\n", plan.Delays)
	for _, d := range stored {
		fmt.Printf("  reply #%d:     %s\n", d.ReplyID, d.Delay)
	}
	fmt.Printf("Last import:    %d numbers\n", imported)
	return nil
}

func runMockServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.Component("mockserver")
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := mockserver.OpenStore(cfg.Mock.DBPath)
	if err != nil {
		return err
	}

	srv := mockserver.New(db, logger)
	if err := srv.Seed(); err != nil {
		return fmt.Errorf("failed to seed mock backend: %w", err)
	}

	logger.Info().Str("db", cfg.Mock.DBPath).Msg("mock backend ready")
	return srv.Run(ctx, cfg.Mock.Addr)
}
