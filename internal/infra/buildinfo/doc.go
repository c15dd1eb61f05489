// Package buildinfo reports the version of the staffdesk binary.
//
// Release builds inject the values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/staffdesk-go/internal/infra/buildinfo.Version=v1.2.0 \
//	  -X github.com/yndnr/staffdesk-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Development builds fall back to the module and VCS data recorded by the
// Go toolchain.
package buildinfo
