package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"streamwatch/internal/capture"
	"streamwatch/internal/config"
	"streamwatch/internal/discovery"
	"streamwatch/internal/logging"
	"streamwatch/internal/monitor"
	"streamwatch/internal/tshark"
	"streamwatch/internal/tui"
)

var (
	version = "dev"
	commit  = ""
)

// go build -ldflags "-X main.version=v0.1.0 -X main.commit=$(git rev-parse --short HEAD)"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	s := config.Default()

	root := &cobra.Command{
		Use:   "streamwatch",
		Short: "Live per-session packet sizes from tshark",
		Long: "streamwatch runs tshark on an interface, groups packets by TCP stream and\n" +
			"shows directed payload sizes per session in a terminal dashboard.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), s)
		},
	}
	bindFlags(root.Flags(), &s)

	root.AddCommand(newInterfacesCmd(), newVersionCmd())
	return root
}

func bindFlags(fs *pflag.FlagSet, s *config.Settings) {
	fs.StringVarP(&s.Interface, "interface", "i", s.Interface, "Network interface to capture from, by name or index (see `streamwatch interfaces`)")
	fs.StringVar(&s.Tshark, "tshark", s.Tshark, "Path to the tshark binary")
	fs.StringVar(&s.Filter, "filter", s.Filter, "BPF capture filter passed to tshark -f")
	fs.DurationVar(&s.PollInterval, "poll-interval", s.PollInterval, "How often queued lines are parsed")
	fs.IntVar(&s.BatchSize, "batch-size", s.BatchSize, "Maximum lines parsed per poll")
	fs.DurationVar(&s.StopTimeout, "stop-timeout", s.StopTimeout, "Grace period between SIGTERM and SIGKILL when stopping tshark")
	fs.DurationVar(&s.Refresh, "refresh", s.Refresh, "Dashboard refresh interval")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&s.LogFile, "log-file", s.LogFile, "Log file for the dashboard, - for stderr (headless mode always logs to stderr)")
	fs.StringVar(&s.MetricsAddr, "metrics-addr", s.MetricsAddr, "Serve Prometheus metrics on this address, e.g. :9090")
	fs.StringVar(&s.ExportDir, "export-dir", s.ExportDir, "Directory for HTML reports and scatter plots")
	fs.BoolVar(&s.Headless, "headless", s.Headless, "Capture without the dashboard and export a report at the end")
	fs.DurationVar(&s.Duration, "duration", s.Duration, "Capture length in headless mode")
	fs.BoolVar(&s.AutoStart, "autostart", s.AutoStart, "Start capturing as soon as the dashboard opens")
	fs.StringVar(&s.SessionFilter, "session-filter", s.SessionFilter, "Initial session filter")
	fs.StringVar(&s.PacketFilter, "packet-filter", s.PacketFilter, "Initial packet size filter, e.g. \"100 -1448 200:220\"")
}

func newInterfacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interfaces",
		Short: "List capture interfaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ifaces, err := discovery.ListInterfaces()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, iface := range ifaces {
				fmt.Fprintf(out, "%d. %s", iface.Index, iface.Name)
				if iface.Description != "" {
					fmt.Fprintf(out, " (%s)", iface.Description)
				}
				for _, addr := range iface.Addresses {
					fmt.Fprintf(out, " %s", addr)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := version
			if commit != "" {
				v += " (" + commit + ")"
			}
			fmt.Fprintln(cmd.OutOrStdout(), "streamwatch", v)
		},
	}
}

func run(parent context.Context, s config.Settings) error {
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return err
	}

	logPath := s.LogFile
	if s.Headless {
		logPath = "-"
	}
	logger, err := logging.New(s.LogLevel, logPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	iface, err := discovery.ResolveInterface(s.Interface)
	if err != nil {
		return err
	}
	s.Interface = iface

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	launcher := &tshark.Launcher{
		Options: tshark.Options{Path: s.Tshark, Interface: s.Interface, BPF: s.Filter},
		Logger:  logger.Named("tshark"),
	}
	mon, err := monitor.New(monitor.Options{
		Launch:       monitor.TsharkLaunch(launcher),
		Logger:       logger,
		PollInterval: s.PollInterval,
		BatchSize:    s.BatchSize,
		StopTimeout:  s.StopTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mon.Close(); err != nil {
			logger.Warn("stopping capture", zap.Error(err))
		}
	}()

	if s.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              s.MetricsAddr,
			Handler:           metricsMux(mon),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.String("addr", s.MetricsAddr), zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", zap.String("addr", s.MetricsAddr))
	}

	logger.Info("streamwatch starting",
		zap.String("interface", s.Interface),
		zap.String("filter", s.Filter),
		zap.Bool("headless", s.Headless))

	if s.Headless {
		return runHeadless(ctx, mon, s, logger)
	}

	if s.AutoStart {
		if err := mon.StartCapture(ctx); err != nil {
			return err
		}
	}

	model := tui.NewSessionsModel(ctx, mon, tui.Config{
		Interface:     s.Interface,
		Refresh:       s.Refresh,
		ExportDir:     s.ExportDir,
		SessionFilter: s.SessionFilter,
		PacketFilter:  s.PacketFilter,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

func metricsMux(mon *monitor.Monitor) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mon.Metrics().Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		st := mon.Status()
		if st.State == capture.Running {
			fmt.Fprintf(w, "running pid=%d parsed=%d\n", st.Pid, st.LinesParsed)
			return
		}
		fmt.Fprintln(w, st.State)
	})
	return mux
}
