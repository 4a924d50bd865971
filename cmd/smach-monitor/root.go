package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tue-robotics/executive-smach/config"
	"github.com/tue-robotics/executive-smach/dda"
	"github.com/tue-robotics/executive-smach/introspection"
	"github.com/tue-robotics/executive-smach/logger"
	"github.com/tue-robotics/executive-smach/mqtt"
)

var rootCmd = &cobra.Command{
	Use:   "smach-monitor",
	Short: "Observe state machine containers over a pub/sub broker",
	Long:  "Subscribes to the structure and status traffic of all introspection servers on a broker and logs it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logInstance := logger.Setup(&cfg.Logging)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			logInstance.Info().Msgf("received signal: %v", sig)
			cancel()
		}()

		transport, closeTransport, err := newTransport(ctx, cfg, logInstance)
		if err != nil {
			return fmt.Errorf("failed to set up transport: %w", err)
		}
		defer closeTransport()

		go serveMetrics(cfg.Metrics.Addr, logInstance)

		return watch(ctx, transport, logInstance)
	},
}

func newTransport(ctx context.Context, cfg *config.Config, logInstance zerolog.Logger) (introspection.Transport, func(), error) {
	switch cfg.Broker.Transport {
	case "dda":
		connector, err := dda.NewConnector(cfg.Broker.Url, "smach-monitor", cfg.Broker.ClientId, cfg.Broker.Cluster, logInstance)
		if err != nil {
			return nil, nil, err
		}
		if err := connector.Open(); err != nil {
			return nil, nil, err
		}
		return connector, connector.Close, nil
	default:
		connector, err := mqtt.NewConnector(cfg.Broker.Url, cfg.Broker.ClientId, logInstance)
		if err != nil {
			return nil, nil, err
		}
		if err := connector.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return connector, func() { connector.Disconnect(context.Background()) }, nil
	}
}

func watch(ctx context.Context, transport introspection.Transport, logInstance zerolog.Logger) error {
	client := introspection.NewClient(transport, introspection.WithClientLogger(logInstance))

	structures, err := client.WatchStructure(ctx)
	if err != nil {
		return err
	}
	statuses, err := client.WatchStatus(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case ev, ok := <-structures:
			if !ok {
				return nil
			}
			logInstance.Info().
				Str("server", ev.Server).
				Str("path", ev.Structure.Path).
				Strs("children", ev.Structure.Children).
				Strs("container_outcomes", ev.Structure.ContainerOutcomes).
				Msg("structure")
		case ev, ok := <-statuses:
			if !ok {
				return nil
			}
			logInstance.Info().
				Str("server", ev.Server).
				Str("path", ev.Status.Path).
				Strs("active_states", ev.Status.ActiveStates).
				Str("info", ev.Status.Info).
				Msg("status")
		case <-ctx.Done():
			return nil
		}
	}
}

func serveMetrics(addr string, logInstance zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logInstance.Warn().Err(err).Msg("metrics server stopped")
	}
}

func init() {
	rootCmd.PersistentFlags().String("broker-url", "", "broker url (e.g. tcp://localhost:1883)")
	rootCmd.PersistentFlags().String("transport", "", "transport to use (mqtt or dda)")
	rootCmd.PersistentFlags().String("log-level", "", "set log level (e.g. info, debug, warn)")
	viper.BindPFlag("broker.url", rootCmd.PersistentFlags().Lookup("broker-url"))
	viper.BindPFlag("broker.transport", rootCmd.PersistentFlags().Lookup("transport"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Execution error: %v\n", err)
		os.Exit(1)
	}
}
