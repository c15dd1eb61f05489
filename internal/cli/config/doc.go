// Package config holds the staffdesk CLI configuration.
//
// Values come from defaults, ~/.config/staffdesk/config.yaml (or --config),
// STAFFDESK_* environment variables and global flags, merged by
// confloader. The backend URL has no default: without STAFFDESK_API_URL,
// api.url or --api-url the CLI refuses to start.
package config
