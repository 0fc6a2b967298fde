// Command adt-gateway runs the MLLP-to-FHIR ADT ingestion gateway: it
// binds a TCP/MLLP listener, parses inbound HL7 v2.5 ADT^A28
// registrations, publishes FHIR R5 transaction Bundles to Kafka, and
// ACKs the sender.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sonho/adt-gateway/internal/config"
	"github.com/sonho/adt-gateway/internal/connection"
	"github.com/sonho/adt-gateway/internal/dispatch"
	"github.com/sonho/adt-gateway/internal/kafka"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "adt-gateway",
		Short: "MLLP-to-FHIR ADT ingestion gateway",
	}
	root.AddCommand(serveCmd())
	return root
}

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MLLP listener and Kafka publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file (env vars and defaults apply otherwise)")
	return cmd
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func runServe(configPath string) error {
	log := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("adt-gateway: %w", err)
	}

	producer := kafka.NewProducer(kafka.Config{
		BootstrapServers:             cfg.Kafka.BootstrapServers,
		RequestInTopic:               cfg.Topics.RequestIn,
		InboundFHIRTransactionsTopic: cfg.Topics.InboundFHIRTransactions,
		ExceptionsTopic:              cfg.Topics.InboundFHIRTransactionsExceptions,
	}, log)
	defer producer.Close()

	dispatcher := &dispatch.Dispatcher{
		Producer:        producer,
		ManagingOrgCode: cfg.HealthcareOrganization.Code,
		ManagingOrgName: cfg.HealthcareOrganization.Name,
		Log:             log,
	}

	if err := ready(cfg); err != nil {
		return fmt.Errorf("adt-gateway: readiness check failed: %w", err)
	}

	acceptor, err := connection.NewAcceptor(cfg.TCP.Host, cfg.TCP.Port, dispatcher, producer, log)
	if err != nil {
		return fmt.Errorf("adt-gateway: %w", err)
	}
	log.Info().Str("addr", acceptor.Addr().String()).Msg("MLLP listener bound")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := acceptor.Run(ctx); err != nil {
		return fmt.Errorf("adt-gateway: %w", err)
	}
	log.Info().Msg("adt-gateway shut down")
	return nil
}

// ready implements SPEC_FULL §C.2's narrow readiness contract: verify
// the TCP bind address is free and at least one Kafka broker is
// reachable before the acceptor starts serving traffic.
func ready(cfg *config.Config) error {
	addr := net.JoinHostPort(cfg.TCP.Host, strconv.Itoa(cfg.TCP.Port))
	probe, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	if err == nil {
		probe.Close()
		return fmt.Errorf("tcp address %s already in use", addr)
	}

	var lastErr error
	for _, broker := range cfg.Kafka.BootstrapServers {
		conn, err := net.DialTimeout("tcp", broker, 2*time.Second)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close()
		return nil
	}
	return fmt.Errorf("no reachable kafka broker in %v: %w", cfg.Kafka.BootstrapServers, lastErr)
}
