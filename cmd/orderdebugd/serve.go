package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Station-Manager/orderdebug"
	"github.com/Station-Manager/orderdebug/internal/admin"
	"github.com/Station-Manager/orderdebug/internal/ingest"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin server and the host event consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(signalCtx, ctx)
		},
	}
}

// runServe blocks until ctx is done or a component fails.
func runServe(ctx context.Context, cmdCtx *commandContext) error {
	a, err := cmdCtx.open(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	bus := orderdebug.NewBus()
	handlers := a.service.Register(bus)
	a.ops.InfoWith().Int("handlers", handlers).Msg("Order debug listeners registered.")

	server, err := admin.NewServer(a.cfg.Admin.Addr, a.service, bus, a.ops)
	if err != nil {
		return err
	}

	errc := make(chan error, 2)
	go func() { errc <- server.Start() }()

	consumerDone := make(chan struct{})
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if a.cfg.Kafka.Enabled && a.service.Active() {
		consumer := ingest.NewConsumer(a.cfg.Kafka, bus, a.ops)
		go func() {
			defer close(consumerDone)
			if runErr := consumer.Run(consumerCtx); runErr != nil {
				errc <- runErr
			}
		}()
	} else {
		close(consumerDone)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
	}

	stopConsumer()
	<-consumerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Admin.ShutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		a.ops.WarnWith().Err(err).Msg("Admin server did not shut down cleanly.")
	}
	return runErr
}
