package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	vlog "veilchat/internal/log"
	"veilchat/internal/relay"
)

const relayLogLevel = "NOTICE"

func relayCmd() *cobra.Command {
	var (
		listen    string
		metrics   string
		advertise bool
		instance  string
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the broadcast relay",
		Long: `Run the broadcast relay.

The relay keeps every registration in memory and rebroadcasts registrations
and messages to all connected clients. It never reads message contents.
Send SIGHUP to reopen the log file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("listen") {
				cfg.Relay.Address = listen
			}
			if flags.Changed("metrics") {
				cfg.Relay.MetricsAddress = metrics
			}
			if flags.Changed("advertise") {
				cfg.Relay.Advertise = advertise
			}
			if flags.Changed("instance") {
				cfg.Relay.Instance = instance
			}
			if err := cfg.FixupAndValidate(); err != nil {
				return err
			}

			backend, err := vlog.New(cfg.Logging.File, cfg.Logging.LevelOr(relayLogLevel), cfg.Logging.Disable)
			if err != nil {
				return err
			}
			defer backend.Close()
			return runRelay(cmd.Context(), backend)
		},
	}

	f := cmd.Flags()
	f.StringVar(&listen, "listen", "0.0.0.0:3000", "TCP listen address")
	f.StringVar(&metrics, "metrics", "", "serve Prometheus metrics on this address")
	f.BoolVar(&advertise, "advertise", false, "announce the relay over mDNS")
	f.StringVar(&instance, "instance", "veilchat", "mDNS instance name")
	return cmd
}

func runRelay(ctx context.Context, backend *vlog.Backend) error {
	log := backend.GetLogger("relay")

	ln, err := net.Listen("tcp", cfg.Relay.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Relay.Address, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	var m *relay.Metrics
	if cfg.Relay.MetricsAddress != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if m, err = relay.NewMetrics(reg); err != nil {
			_ = ln.Close()
			return err
		}
		g.Go(func() error {
			log.Noticef("metrics on http://%s/metrics", cfg.Relay.MetricsAddress)
			return relay.ServeMetrics(ctx, cfg.Relay.MetricsAddress, reg, backend.GetGoLogger("metrics", "WARNING"))
		})
	}

	if cfg.Relay.Advertise {
		port := ln.Addr().(*net.TCPAddr).Port
		adv, err := relay.Advertise(cfg.Relay.Instance, port)
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer adv.Shutdown()
		log.Noticef("advertising %s as %q", relay.ServiceName, cfg.Relay.Instance)
	}

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				if err := backend.Rotate(); err != nil {
					log.Errorf("reopen log: %v", err)
				}
			}
		}
	})

	g.Go(func() error {
		return relay.NewServer(log, m).Serve(ctx, ln)
	})
	return g.Wait()
}
