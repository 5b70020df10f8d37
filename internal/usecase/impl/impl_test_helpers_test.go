package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"prepwise/config"
	"prepwise/internal/domain/entity"
	"prepwise/internal/domain/service"
	"prepwise/internal/domain/storage"
	"prepwise/internal/errors"
	"prepwise/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Session = &config.SessionConfig{TTL: 2 * time.Hour}

	return cfg
}

// memTier is an in-memory storage tier with switchable failure modes.
type memTier struct {
	scope storage.TierScope

	mu        sync.Mutex
	values    map[string][]byte
	failWrite bool
	failRead  bool
}

func newMemTier(scope storage.TierScope) *memTier {
	return &memTier{scope: scope, values: map[string][]byte{}}
}

func (t *memTier) Scope() storage.TierScope { return t.scope }

func (t *memTier) Read(_ context.Context, key string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failRead {
		return nil, errors.New("tier unavailable")
	}
	value, ok := t.values[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}

	return append([]byte(nil), value...), nil
}

func (t *memTier) Write(_ context.Context, key string, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failWrite {
		return errors.New("quota exceeded")
	}
	t.values[key] = append([]byte(nil), value...)

	return nil
}

func (t *memTier) Delete(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.values, key)

	return nil
}

func (t *memTier) Keys(_ context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.values))
	for key := range t.values {
		keys = append(keys, key)
	}

	return keys, nil
}

func (t *memTier) has(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.values[key]

	return ok
}

func (t *memTier) put(key string, value []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.values[key] = value
}

// memGateway pairs two memTiers behind the gateway contract.
type memGateway struct {
	volatile *memTier
	durable  *memTier

	mu      sync.Mutex
	markers []string
}

func newMemGateway() *memGateway {
	return &memGateway{
		volatile: newMemTier(storage.TierVolatile),
		durable:  newMemTier(storage.TierDurable),
		markers:  []string{"interview", "speech", "voice"},
	}
}

func (g *memGateway) Volatile() storage.Tier { return g.volatile }
func (g *memGateway) Durable() storage.Tier  { return g.durable }

func (g *memGateway) RegisterMarker(marker string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.markers = append(g.markers, marker)
}

func (g *memGateway) Markers() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string(nil), g.markers...)
}

func (g *memGateway) PurgeMarked(ctx context.Context) int {
	deleted := 0
	for _, tier := range []*memTier{g.volatile, g.durable} {
		keys, _ := tier.Keys(ctx)
		for _, key := range keys {
			for _, marker := range g.Markers() {
				if strings.Contains(strings.ToLower(key), marker) {
					_ = tier.Delete(ctx, key)
					deleted++

					break
				}
			}
		}
	}

	return deleted
}

// recordingNotifier captures published notices.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []service.UINotice
}

func (n *recordingNotifier) PublishNotice(_ context.Context, notice *service.UINotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, *notice)

	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	kinds := make([]string, 0, len(n.notices))
	for _, notice := range n.notices {
		kinds = append(kinds, notice.Kind)
	}

	return kinds
}

// recordingSpeech counts cancellations.
type recordingSpeech struct {
	mu      sync.Mutex
	cancels int
}

func (s *recordingSpeech) Speak(context.Context, string) (string, error) { return "", nil }

func (s *recordingSpeech) CancelAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++

	return nil
}

func (s *recordingSpeech) cancelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancels
}

// scriptedAddressBar mimics an address holding a callback fragment.
type scriptedAddressBar struct {
	mu      sync.Mutex
	address string
	strips  int
}

func (b *scriptedAddressBar) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.address
}

func (b *scriptedAddressBar) StripAuthFragment() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	base, _, found := strings.Cut(b.address, "#")
	if !found {
		return false
	}
	b.address = base
	b.strips++

	return true
}

// scriptedProvider drives the synchronizer by hand.
type scriptedProvider struct {
	snapshot *service.AuthSnapshot
	fetchErr error

	mu           sync.Mutex
	handler      func(service.AuthEvent)
	unsubscribes int
}

func (p *scriptedProvider) CurrentStatus(context.Context) (*service.AuthSnapshot, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	if p.snapshot == nil {
		return &service.AuthSnapshot{}, nil
	}

	return p.snapshot, nil
}

func (p *scriptedProvider) Subscribe(handler func(service.AuthEvent)) (service.Unsubscribe, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = handler

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.unsubscribes++
	}, nil
}

func (p *scriptedProvider) RedirectURL() string { return "http://localhost:3000/auth/callback" }

func (p *scriptedProvider) fire(t *testing.T, event service.AuthEvent) {
	t.Helper()

	p.mu.Lock()
	handler := p.handler
	p.mu.Unlock()
	if handler == nil {
		t.Fatal("no subscription registered")
	}
	handler(event)
}

// countingSessions stubs the persistence manager for synchronizer tests.
type countingSessions struct {
	mu     sync.Mutex
	purges int
}

func (s *countingSessions) Save(context.Context, entity.Identity, *entity.InterviewSession) bool {
	return true
}

func (s *countingSessions) Load(context.Context, entity.Identity) *entity.InterviewSession {
	return nil
}

func (s *countingSessions) Clear(context.Context, entity.Identity) {}

func (s *countingSessions) Purge(context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purges++

	return 0
}

func (s *countingSessions) purgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.purges
}

var _ usecase.SessionUsecase = (*countingSessions)(nil)
var _ service.AuthProvider = (*scriptedProvider)(nil)
var _ storage.Gateway = (*memGateway)(nil)
