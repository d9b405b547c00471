// Package buildinfo reports the synckit version.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/synckit-go/internal/infra/buildinfo.Version=v0.3.0"
//
// When they are not injected, Get falls back to the VCS settings the Go
// toolchain embeds in the binary.
package buildinfo
