// Package command provides the staffdesk CLI commands.
//
// It uses urfave/cli/v2. The root Before hook loads the configuration;
// the first command that needs the backend builds a Runtime holding the
// HTTP client, the session manager and the resource services. The
// interactive shell runs every line through the same App and reuses
// that Runtime.
//
// Commands that need a signed-in user declare a guard in their Before
// hook. The guard restores the stored session, waits for it to settle
// and maps a redirect decision onto ErrNotAuthenticated or ErrForbidden.
package command
