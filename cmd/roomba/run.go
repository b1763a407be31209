package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gwillem/roomba/pkg/dispatch"
	"github.com/gwillem/roomba/pkg/ingest"
	"github.com/gwillem/roomba/pkg/metrics"
	"github.com/gwillem/roomba/pkg/robot"
	"github.com/gwillem/roomba/pkg/sequence"
)

type RunCommand struct {
	Server      string `long:"server" description:"Sequence server to connect to, host:port (overrides the configuration)"`
	Broker      string `long:"broker" description:"MQTT broker URL, e.g. mqtt://localhost:1883 (overrides the configuration)"`
	Topic       string `long:"topic" description:"MQTT topic carrying sequences"`
	MetricsAddr string `long:"metrics-addr" description:"Serve /metrics and health checks on this address"`
	QueueSize   int    `long:"queue-size" default:"8" description:"Sequences that may wait behind the running one"`
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load %s: %w (run 'roomba setup' first)", opts.Config, err)
	}
	c.override(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	source, err := c.source(cfg, log)
	if err != nil {
		return err
	}

	port, err := robot.OpenPort(*cfg)
	if err != nil {
		return err
	}
	r, err := robot.FromConfig(metrics.Writer(port), *cfg, robot.WithLogger(log.Named("robot")))
	if err != nil {
		port.Close()
		return err
	}
	defer r.Close()

	sigCtx, cancel := signalContext()
	defer cancel()
	ctx, fail := context.WithCancelCause(sigCtx)
	defer fail(nil)

	if err := r.Init(ctx); err != nil {
		return fmt.Errorf("init robot: %w", err)
	}
	log.Info("robot ready", zap.String("port", cfg.Port), zap.String("mode", r.Mode()), zap.Int("speed", r.Speed()))

	d := dispatch.New(r, dispatch.WithLogger(log.Named("dispatch")))
	queue := dispatch.NewQueue(d,
		dispatch.WithQueueSize(c.QueueSize),
		dispatch.WithQueueLogger(log.Named("queue")),
		dispatch.WithResultHandler(func(res dispatch.Result) {
			// A broken serial channel will not recover; exit and let the
			// supervisor restart us.
			var te *robot.TransportError
			if errors.As(res.Err, &te) {
				fail(te)
			}
		}),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return queue.Run(gctx)
	})
	g.Go(func() error {
		return source.Run(gctx, func(_ context.Context, raw string) {
			task, err := queue.Submit(raw)
			if err != nil {
				var pe *sequence.ParseError
				if errors.As(err, &pe) {
					log.Warn("rejected sequence", zap.String("raw", raw), zap.Error(err))
					return
				}
				log.Error("submit sequence", zap.String("raw", raw), zap.Error(err))
				return
			}
			log.Info("accepted sequence", zap.String("id", task.ID), zap.String("sequence", sequence.Format(task.Commands)))
		})
	})
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, r.Ready, log.Named("metrics"))
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}

	err = g.Wait()
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *RunCommand) override(cfg *robot.Config) {
	if c.Server != "" {
		cfg.Server.Address = c.Server
	}
	if c.Broker != "" {
		cfg.MQTT.Broker = c.Broker
	}
	if c.Topic != "" {
		cfg.MQTT.Topic = c.Topic
	}
	if c.MetricsAddr != "" {
		cfg.MetricsAddr = c.MetricsAddr
	}
}

// source picks MQTT when a broker is configured and the TCP client
// otherwise.
func (c *RunCommand) source(cfg *robot.Config, log *zap.Logger) (ingest.Source, error) {
	switch {
	case cfg.MQTT.Broker != "":
		return ingest.NewMQTTSource(cfg.MQTT.Broker, cfg.MQTT.Topic, cfg.MQTT.ClientID, log.Named("mqtt")), nil
	case cfg.Server.Address != "":
		return ingest.NewTCPClient(cfg.Server.Address, log.Named("tcp")), nil
	default:
		return nil, fmt.Errorf("no sequence source: set server.address or mqtt.broker, or pass --server/--broker")
	}
}
