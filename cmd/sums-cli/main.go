package main

import (
	"context"
	"log/slog"
	"sums-scraper/cmd/sums-cli/commands"
	"sums-scraper/lib/telemetry"
)

func main() {
	ctx := context.Background()
	telemetry.InitSlog(true)
	if err := telemetry.SetupFromEnv(ctx, "sums-cli"); err != nil {
		slog.Warn("failed to set up telemetry export", "err", err)
	}
	telemetry.InstrumentPerfStats(ctx)
	defer telemetry.Shutdown(ctx)

	commands.ExecuteContext(ctx)
}
