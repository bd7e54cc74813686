package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cosmossdk.io/log"
	"github.com/cometbft/cometbft/abci/server"
	"github.com/spf13/cobra"

	"gamehouse/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		home      string
		addr      string
		transport string
	)

	cmd := &cobra.Command{
		Use:   "gamehoused",
		Short: "Confidential wagering ledger ABCI daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.NewLogger(cmd.OutOrStderr())

			a, err := app.New(home, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			srv, err := server.NewServer(addr, transport, a)
			if err != nil {
				return fmt.Errorf("start abci server: %w", err)
			}
			if err := srv.Start(); err != nil {
				return fmt.Errorf("abci server start: %w", err)
			}
			defer func() { _ = srv.Stop() }()

			logger.Info("gamehoused listening", "addr", addr, "transport", transport, "home", home)

			// Wait for signal.
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}

	cmd.Flags().StringVar(&home, "home", ".gamehouse", "app home directory (state will be stored under <home>/app)")
	cmd.Flags().StringVar(&addr, "addr", "tcp://127.0.0.1:26658", "ABCI listen address")
	cmd.Flags().StringVar(&transport, "transport", "socket", "ABCI transport (socket|grpc)")
	return cmd
}
