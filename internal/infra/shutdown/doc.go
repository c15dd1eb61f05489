// Package shutdown runs cleanup hooks when the process is interrupted or
// a command finishes.
//
// Hooks run once, in reverse order of registration, under a shared
// deadline:
//
//	h := shutdown.NewHandler(5*time.Second, log)
//	h.OnShutdown("metrics", reg.Flush)
//	ctx, stop := h.NotifyContext(context.Background())
//	defer stop()
//	defer h.Shutdown(context.Background())
package shutdown
