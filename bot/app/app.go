// Package app assembles the bot: configuration, storage, blob store,
// translations, access codes, conversation engine, and transport wiring.
package app

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/vesilelab/vesilebot/bot/blob"
	botconfig "github.com/vesilelab/vesilebot/bot/config"
	"github.com/vesilelab/vesilebot/bot/conv"
	"github.com/vesilelab/vesilebot/bot/flows"
	"github.com/vesilelab/vesilebot/bot/i18n"
	"github.com/vesilelab/vesilebot/bot/models"
	"github.com/vesilelab/vesilebot/bot/otp"
	"github.com/vesilelab/vesilebot/bot/storage"
	bottelegram "github.com/vesilelab/vesilebot/bot/telegram"
	"github.com/vesilelab/vesilebot/core/bootstrap"
	coretelegram "github.com/vesilelab/vesilebot/core/telegram"
	tghelpers "github.com/vesilelab/vesilebot/core/telegram/helpers"
	"github.com/vesilelab/vesilebot/core/telegram/commands"
	"github.com/vesilelab/vesilebot/core/telegram/router"
)

// App holds the assembled components.
type App struct {
	cfg     *botconfig.Config
	engine  *conv.Engine
	adapter *bottelegram.Adapter
	texts   *i18n.Catalog
	codes   *otp.Rotator
}

// New runs the bootstrap pipeline and wires every component. The returned
// app is ready to produce transport run options.
func New(cfg *botconfig.Config) (*App, error) {
	boot, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	texts, err := i18n.Load(cfg.App.TranslationsDir, cfg.App.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("app: translations: %w", err)
	}

	store, err := blob.New(context.Background(), cfg.Blob)
	if err != nil {
		return nil, err
	}

	codes, err := otp.NewRotator(cfg.App.AccessCodeRotation)
	if err != nil {
		return nil, fmt.Errorf("app: access codes: %w", err)
	}

	gw := storage.New(boot.DB)

	a := &App{cfg: cfg, texts: texts, codes: codes}

	engine, err := conv.New(conv.Config{
		FallbackDelay:   cfg.FallbackTimeout(),
		DefaultLocale:   cfg.App.DefaultLocale,
		SessionCapacity: cfg.App.SessionCapacity,
	}, texts, nil)
	if err != nil {
		return nil, err
	}
	a.engine = engine
	a.adapter = bottelegram.NewAdapter(engine, cfg.Core.Telegram.AdminID)
	engine.Timers().SetNotify(a.adapter.RestartNotifier(texts, cfg.App.DefaultLocale, "/start"))

	flowSet := flows.New(gw, store, a.adapter, a.adapter, codes, flows.Options{
		PageSize: cfg.App.PageSize,
		AdminID:  cfg.Core.Telegram.AdminID,
	})
	flowSet.Register(engine)

	if err := adminSeeder(cfg).Seed(context.Background(), gw); err != nil {
		return nil, fmt.Errorf("app: seed: %w", err)
	}

	return a, nil
}

// adminSeeder makes sure the configured operator account has an admin
// profile before the first update arrives.
func adminSeeder(cfg *botconfig.Config) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, s bootstrap.Storage) error {
		adminID := cfg.Core.Telegram.AdminID
		if adminID == 0 {
			return nil
		}
		gw, ok := s.(*storage.Gateway)
		if !ok {
			return fmt.Errorf("unexpected storage %T", s)
		}
		_, err := gw.FindProfile(ctx, adminID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		_, err = gw.CreateProfile(ctx, "admin", cfg.App.DefaultLocale, models.RoleAdmin, adminID)
		return err
	})
}

// TelegramRunOptions builds the transport wiring for the core runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Description: "Restart the conversation",
		Handler:     a.adapter.HandleText,
	})
	reg.RegisterCommand("/help", commands.Command{
		Description: "How the bot works",
		Handler: func(c tele.Context) error {
			locale := a.cfg.App.DefaultLocale
			if s, ok := a.engine.Sessions().Peek(senderID(c)); ok {
				if loc, ok := s.AttrString(conv.AttrLocale); ok && loc != "" {
					locale = loc
				}
			}
			return tghelpers.SendText(c, a.texts.Text(locale, "help_message"))
		},
	})
	reg.RegisterCommand("/code", commands.Command{
		Description: "Current translator access code",
		AdminOnly:   true,
		Hidden:      true,
		Handler: func(c tele.Context) error {
			return tghelpers.SendText(c, a.codes.Current())
		},
	})

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(a.adapter, reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(a.adapter, reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.adapter.SetBot(rt.Bot)
			a.codes.Start()
			return nil
		},
		OnStop: func(_ context.Context, _ coretelegram.Runtime) error {
			a.codes.Stop()
			a.engine.Shutdown()
			return nil
		},
	}, nil
}

func senderID(c tele.Context) int64 {
	if s := c.Sender(); s != nil {
		return s.ID
	}
	return 0
}
