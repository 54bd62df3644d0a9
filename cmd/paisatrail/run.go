package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paisatrail/paisatrail/internal/category"
	"github.com/paisatrail/paisatrail/internal/common"
	"github.com/paisatrail/paisatrail/internal/config"
	"github.com/paisatrail/paisatrail/internal/delivery"
	"github.com/paisatrail/paisatrail/internal/ingest"
	"github.com/paisatrail/paisatrail/internal/mapper"
	"github.com/paisatrail/paisatrail/internal/parser"
	"github.com/paisatrail/paisatrail/internal/queue"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the notification ingestion daemon",
		Long: `Poll the notification observer, parse payment notifications into
transactions, and deliver them to the backend. Runs until interrupted.`,
		RunE: runDaemon,
	}

	cmd.Flags().String("capture-file", "", "path to the notification capture file")
	cmd.Flags().String("backend-url", "", "base URL of the ingest backend")
	cmd.Flags().Duration("poll-interval", 0, "polling interval (default 3s)")
	_ = viper.BindPFlag("capture.path", cmd.Flags().Lookup("capture-file"))
	_ = viper.BindPFlag("backend.url", cmd.Flags().Lookup("backend-url"))
	_ = viper.BindPFlag("ingest.poll_interval", cmd.Flags().Lookup("poll-interval"))

	return cmd
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	capturePath := config.ExpandPath(viper.GetString("capture.path"))
	if capturePath == "" {
		return common.NewUserError("no capture file configured; set capture.path or --capture-file", common.ErrMissingConfig)
	}
	backendURL := viper.GetString("backend.url")
	if backendURL == "" {
		return common.NewUserError("no backend URL configured; set backend.url or --backend-url", common.ErrMissingConfig)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	suggester, err := category.NewSuggester(ctx, store)
	if err != nil {
		return err
	}

	device, err := config.NewDevice(ctx, store, viper.GetString("device.id"), viper.GetString("backend.token"))
	if err != nil {
		return err
	}

	q := queue.New(queue.DefaultConfig(), store)
	if err := q.Load(ctx); err != nil {
		return err
	}
	if q.Len() > 0 {
		slog.Info("Restored undelivered events", "queued", q.Len())
	}

	orch := ingest.New(
		ingest.Config{PollInterval: viper.GetDuration("ingest.poll_interval")},
		mapper.New(parser.New(), suggester),
		q,
		ingest.NewFileSource(capturePath),
		device,
		delivery.NewClient(backendURL, device.AuthToken()),
		nil,
	)

	slog.Info("Starting ingestion daemon",
		"capture_file", capturePath,
		"backend", backendURL,
		"device_id", device.DeviceID())

	orch.Start(ctx)
	<-ctx.Done()
	orch.Stop()

	slog.Info("Ingestion daemon stopped", "queued", q.Len())
	return nil
}
