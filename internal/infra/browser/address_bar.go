// Package browser holds the thin address-bar collaborator.
package browser

import (
	"log/slog"
	"strings"
	"sync"

	"prepwise/config"
	"prepwise/internal/domain/service"
)

// Fragment prefixes the backend appends to the callback address after a
// sign-in, email confirmation, or password reset.
var authFragmentPrefixes = []string{"access_token=", "error=", "type=recovery"}

type addressBar struct {
	logger *slog.Logger

	mu      sync.Mutex
	address string
}

// NewAddressBar seeds the address bar with the configured origin.
func NewAddressBar(cfg *config.Config, logger *slog.Logger) service.AddressBar {
	return &addressBar{
		logger:  logger,
		address: strings.TrimRight(cfg.Auth.Origin, "/") + "/",
	}
}

func (b *addressBar) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.address
}

// Navigate records an address change, fragment included.
func (b *addressBar) Navigate(address string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.address = address
}

func (b *addressBar) StripAuthFragment() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	base, fragment, found := strings.Cut(b.address, "#")
	if !found {
		return false
	}

	if !isAuthFragment(fragment) {
		return false
	}

	// Rewrite in place; no navigation, so a reload cannot replay the stale
	// credential fragment.
	b.address = base
	b.logger.Debug("stripped auth callback fragment")

	return true
}

func isAuthFragment(fragment string) bool {
	for _, prefix := range authFragmentPrefixes {
		if strings.HasPrefix(fragment, prefix) {
			return true
		}
	}

	return false
}
