package collectors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/billdonner/server-monitor/internal/domain"
)

// TokenSource resolves stored credentials by name. Implemented by the
// keyring-backed secrets store; tests substitute a map.
type TokenSource interface {
	GetToken(name string) (string, error)
}

// Deps carries the shared collaborators adapter factories may need.
type Deps struct {
	Tokens TokenSource
	Log    *zap.Logger
}

// Factory builds a collector for one target of a given kind.
type Factory func(target domain.Target, deps Deps) (Collector, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds a collector factory for a target kind. Kind selection
// happens once at registration, never inside the poll loop.
func Register(kind string, factory Factory) {
	kind = normalizeKind(kind)
	if kind == "" {
		panic("collectors: empty kind")
	}
	if factory == nil {
		panic("collectors: nil factory")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[kind]; exists {
		panic(fmt.Sprintf("collectors: kind %q already registered", kind))
	}
	registry[kind] = factory
}

// Build constructs the collector for a target, resolving its kind against
// the registry. An unregistered kind yields domain.ErrUnknownKind.
func Build(target domain.Target, deps Deps) (Collector, error) {
	mu.RLock()
	factory, ok := registry[normalizeKind(target.Kind)]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("target %q kind %q: %w", target.Name, target.Kind, domain.ErrUnknownKind)
	}
	return factory(target, deps)
}

// BuildAll constructs collectors for every target. Targets with an unknown
// kind are skipped with a warning so one config mistake never takes down
// the rest of the dashboard; any other factory error is fatal.
func BuildAll(targets []domain.Target, deps Deps) ([]Collector, error) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	out := make([]Collector, 0, len(targets))
	for _, t := range targets {
		c, err := Build(t, deps)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownKind) {
				log.Warn("skipping target with unknown kind",
					zap.String("target", t.Name),
					zap.String("kind", t.Kind),
				)
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoTargets
	}
	return out, nil
}

// Kinds returns the registered kinds, sorted for stable help output.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Reset clears the registry. Intended for use in tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = map[string]Factory{}
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

// RegisterBuiltins registers every adapter shipped with the binary. Called
// once from the command layer before any target is built.
func RegisterBuiltins() {
	Register(domain.KindHTTP, newHTTPCollector)
	Register(domain.KindRedis, newRedisCollector)
	Register(domain.KindPostgres, newPostgresCollector)
	Register(domain.KindHetzner, newHetznerCollector)
}
