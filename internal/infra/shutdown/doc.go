// Package shutdown coordinates process termination.
//
// A Handler collects hooks (final checkpoint, metrics server, catalog) and
// runs them in reverse registration order once the run context is
// cancelled, either by SIGINT/SIGTERM or by the caller:
//
//	ctx, stop := shutdown.Notify(context.Background())
//	defer stop()
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(saveFinalCheckpoint)
//	go run(ctx)
//	err := h.Wait(ctx)
package shutdown
