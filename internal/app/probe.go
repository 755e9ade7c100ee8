package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
	"github.com/samvad-hq/samvad-api-client/internal/storage"
	"github.com/samvad-hq/samvad-api-client/pkg/apiclient"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
	"github.com/samvad-hq/samvad-api-client/pkg/reporters"
)

// Probe is the API client runtime. It owns the cookie store, the optional
// failure reporters and the client built on top of them.
type Probe struct {
	cfg    *config.Config
	client *apiclient.Client
	store  storage.Store
	fanout *reporters.Fanout
	log    logger.Logger
}

// NewProbe builds a probe runtime from config.
func NewProbe(ctx context.Context, cfg *config.Config, log logger.Logger) (*Probe, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	messages, err := apiclient.NewCatalog(cfg.Locale, cfg.MessagesFile)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	store, err := storage.NewStore(cfg.CookieStoreType, cfg.CookieStorePath, storage.Options{
		SessionTTL:      cfg.CookieSessionTTL,
		CleanupInterval: cfg.CookieCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init cookie store: %w", err)
	}
	log.InfoObj("cookie store initialized", "storage_config", map[string]any{
		"type":                     cfg.CookieStoreType,
		"path":                     cfg.CookieStorePath,
		"session_ttl_seconds":      int(cfg.CookieSessionTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.CookieCleanupInterval.Seconds()),
	})

	jar, err := storage.NewJar(store, func(err error) {
		log.WarnObj("cookie persist failed", "error", err.Error())
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init cookie jar: %w", err)
	}

	fanout, err := buildReporters(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	opts := apiclient.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.APITimeout,
		Jar:      jar,
		Messages: messages,
	}
	if fanout.Size() > 0 {
		opts.Reporter = reporters.NewFailureHook(cfg.AppName, fanout, cfg.ReportTimeout, log)
	}

	log.InfoObj("api client ready", "client_config", map[string]any{
		"base_url":        cfg.APIBaseURL,
		"timeout_seconds": int(cfg.APITimeout.Seconds()),
		"locale":          messages.Locale(),
		"reporters":       fanout.Size(),
	})

	return &Probe{
		cfg:    cfg,
		client: apiclient.New(opts, log),
		store:  store,
		fanout: fanout,
		log:    log,
	}, nil
}

// buildReporters loads and builds the enabled failure reporters. A missing
// reporters file means no reporting.
func buildReporters(ctx context.Context, cfg *config.Config, log logger.Logger) (*reporters.Fanout, error) {
	if cfg.ReportersFile == "" {
		return reporters.NewFanout(nil), nil
	}

	reg, err := reporters.LoadRegistry(cfg.ReportersFile)
	if err != nil {
		return nil, fmt.Errorf("load reporters registry: %w", err)
	}
	enabled := reg.Enabled()
	reps, err := reporters.BuildAll(ctx, reporters.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build reporters: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, rc := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   rc.ID,
			"type": rc.Type,
		})
	}
	log.InfoObj("reporters registry loaded", "reporters_meta", map[string]any{
		"count":     len(summaries),
		"reporters": summaries,
	})
	return reporters.NewFanout(reps), nil
}

// Client exposes the underlying API client.
func (p *Probe) Client() *apiclient.Client {
	return p.client
}

// Request performs a single API call.
func (p *Probe) Request(ctx context.Context, req apiclient.Request) (httpclient.Response, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("probe is not initialized")
	}
	return p.client.Do(ctx, req)
}

// ClearCookies drops every persisted credential.
func (p *Probe) ClearCookies() error {
	if p == nil || p.store == nil {
		return nil
	}
	if err := p.store.Clear(); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	p.log.InfoObj("cookie store cleared", "path", p.cfg.CookieStorePath)
	return nil
}

// Close releases the reporters and the cookie store.
func (p *Probe) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if err := p.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cookie store: %w", err))
		}
	}
	return errors.Join(errs...)
}
