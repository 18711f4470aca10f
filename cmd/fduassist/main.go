package main

import (
	"context"

	"fduassist-backend/cmd/fduassist/commands"
	"fduassist-backend/lib/serviceutil"
	"fduassist-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "fduassist")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InitSlog(false)
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
