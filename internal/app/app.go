// Package app wires the bot together: config, logging, storage, transport,
// time parsing, and the reminder engine.
package app

import (
	"context"
	"time"

	"remindbot/internal/bot"
	"remindbot/internal/config"
	"remindbot/internal/notify"
	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	"remindbot/internal/timeparse"
	kit "remindbot/internal/transport"
	telegram "remindbot/internal/transport/telegram"
	"remindbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	store   storage.Store
	adapter kit.Adapter
	notif   *notify.Service
	engine  *reminder.Engine
	router  *bot.Router

	updates chan kit.Update
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	var store storage.Store
	if cfg.Storage != nil {
		sc, err := mapStorageConfig(cfg.Storage)
		if err != nil {
			return nil, err
		}
		store, err = storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		if store != nil {
			log.Info("storage enabled", logx.String("driver", sc.Driver))
		}
	}

	ncfg, err := mapNotifyConfig(cfg.Notify)
	if err != nil {
		return nil, err
	}
	notif := notify.New(ncfg, ad, log.With(logx.String("comp", "notify")))

	engine := reminder.New(store, notif, log.With(logx.String("comp", "reminder")))

	resolver := timeparse.NewResolver(timeparse.NewWhenDelegate())
	router := bot.NewRouter(ad, resolver, engine, cfg.Reminder.DefaultOccurrences,
		log.With(logx.String("comp", "bot")))

	return &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		adapter: ad,
		notif:   notif,
		engine:  engine,
		router:  router,
		updates: make(chan kit.Update, 256),
		done:    make(chan struct{}),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return err
	}
	a.engine.Start()
	a.restoreReminders(runCtx)

	go a.dispatchLoop(runCtx)
	go func() {
		if err := a.cfgm.Watch(runCtx); err != nil && runCtx.Err() == nil {
			a.log.Warn("config watch exited", logx.Err(err))
		}
	}()
	go a.reloadLoop(runCtx)

	a.log.Info("started", logx.String("bot", a.adapter.BotUsername()))
	return nil
}

func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.engine.Stop(ctx)
	_ = a.adapter.Stop(ctx)
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close", logx.Err(err))
		}
	}
	a.logs.Close()
	close(a.done)
}

// Done is closed once Stop finishes.
func (a *App) Done() <-chan struct{} { return a.done }

func (a *App) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-a.updates:
			a.router.HandleUpdate(ctx, u)
		}
	}
}

// restoreReminders replays persisted one-off reminders: future ones get
// rescheduled, expired ones are dropped from the store.
func (a *App) restoreReminders(ctx context.Context) {
	if a.store == nil {
		return
	}
	recs, err := a.store.List(ctx)
	if err != nil {
		a.log.Warn("restore list failed", logx.Err(err))
		return
	}
	now := time.Now()
	restored, expired := 0, 0
	for _, rec := range recs {
		if rec.At.After(now) {
			if _, err := a.engine.Restore(rec.Destination, rec.At, rec.Message); err != nil {
				a.log.Warn("restore failed", logx.String("id", rec.ID), logx.Err(err))
				continue
			}
			restored++
			continue
		}
		if err := a.store.Delete(ctx, rec.Destination, rec.At); err != nil {
			a.log.Warn("expired record delete failed", logx.String("id", rec.ID), logx.Err(err))
			continue
		}
		expired++
	}
	if restored > 0 || expired > 0 {
		a.log.Info("reminders restored", logx.Int("restored", restored), logx.Int("expired", expired))
	}
}

// reloadLoop applies hot config changes: log level/sinks and delivery rate.
// Storage and telegram settings need a restart.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			a.logs.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			ncfg, err := mapNotifyConfig(cfg.Notify)
			if err != nil {
				a.log.Warn("invalid notify config; keeping previous", logx.Err(err))
				continue
			}
			a.notif.Apply(ncfg)
			a.log.Info("config applied")
		}
	}
}

func mapStorageConfig(sc *config.StorageConfig) (storage.Config, error) {
	busy, err := config.ParseDurationField("storage.busy_timeout", sc.BusyTimeout)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      sc.Driver,
		Path:        sc.Path,
		BusyTimeout: busy,
	}, nil
}

func mapNotifyConfig(nc *config.NotifyConfig) (notify.Config, error) {
	if nc == nil {
		return notify.Config{}, nil
	}
	base, err := config.ParseDurationField("notify.retry_base", nc.RetryBase)
	if err != nil {
		return notify.Config{}, err
	}
	maxDelay, err := config.ParseDurationField("notify.retry_max_delay", nc.RetryMaxDelay)
	if err != nil {
		return notify.Config{}, err
	}
	sendTimeout, err := config.ParseDurationField("notify.send_timeout", nc.SendTimeout)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.Config{
		RatePerSec:    nc.RatePerSec,
		RetryMax:      nc.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
		SendTimeout:   sendTimeout,
	}, nil
}
