// Package shutdown coordinates graceful process termination.
//
// A Handler blocks until SIGINT, SIGTERM or context cancellation, then runs
// registered hooks newest first under a bounded timeout:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
