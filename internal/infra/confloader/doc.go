// Package confloader layers configuration sources with koanf.
//
// Sources are merged in this order, later ones winning:
//
//  1. Defaults supplied by the caller
//  2. The YAML configuration file, when present
//  3. Environment variables carrying the prefix (STAFFDESK_ by default)
//  4. Overrides, usually taken from command-line flags
//
// Environment names map onto keys by dropping the prefix, lowering the
// case and turning underscores into dots: STAFFDESK_API_URL becomes
// api.url. Keys are therefore single words per level.
//
// Watcher follows a configuration file on disk so long-running sessions
// can pick up edits without a restart.
package confloader
