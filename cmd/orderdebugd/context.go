package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/Station-Manager/orderdebug"
	"github.com/Station-Manager/orderdebug/internal/config"
	"github.com/Station-Manager/orderdebug/internal/ingest"
	"github.com/Station-Manager/orderdebug/internal/oplog"
	"github.com/Station-Manager/orderdebug/internal/store"
	"github.com/mattn/go-isatty"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if !stderrIsTerminal() {
			cfg.Logging.ConsoleNoColor = true
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app holds everything a command opens. close releases it in reverse order.
type app struct {
	cfg     *config.Config
	ops     *oplog.Service
	store   *store.Store
	service *orderdebug.Service
}

// open builds the operational logger, the option store and the debug service.
// withProbe checks the host order system through Kafka when it is enabled.
func (c *commandContext) open(ctx context.Context, withProbe bool) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	ops := &oplog.Service{Config: &logCfg}
	if err = ops.Initialize(); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.SettingsDB)
	if err != nil {
		_ = ops.Close()
		return nil, err
	}

	svc := &orderdebug.Service{
		LogFile: cfg.LogFile,
		Store:   st,
		Logger:  ops,
	}
	if withProbe && cfg.Kafka.Enabled {
		svc.Probe = ingest.TopicProbe{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ProbeTopic,
			Timeout: cfg.Kafka.DialTimeout,
		}
	}
	if err = svc.Initialize(ctx); err != nil {
		_ = st.Close()
		_ = ops.Close()
		return nil, err
	}

	return &app{cfg: cfg, ops: ops, store: st, service: svc}, nil
}

func (r *app) close() {
	_ = r.service.Close()
	if err := r.store.Close(); err != nil {
		r.ops.WarnWith().Err(err).Msg("Failed to close option store.")
	}
	_ = r.ops.Close()
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
