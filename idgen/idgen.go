// Package idgen produces human-readable business identifiers of the form
// PREFIX-YEAR-TOKEN, e.g. POL-2026-042583911. The token mixes a time-based
// component with random digits so collisions are rare, but callers must still
// verify uniqueness against storage and retry on collision.
package idgen

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// MaxAttempts bounds the generate-check-retry loop run by callers. The
// identifier space is large enough that hitting this limit means something is
// wrong with storage, not with the generator.
const MaxAttempts = 10

// ErrExhausted signals that no unused identifier was found within MaxAttempts.
var ErrExhausted = errors.New("idgen: exhausted unique identifier attempts")

// Generator owns its random source so it carries no process-global state and
// can be made deterministic in tests.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func New() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) WithSource(src rand.Source) *Generator {
	g.rng = rand.New(src)
	return g
}

// Generate returns a fresh candidate identifier. It does not guarantee
// uniqueness; the caller checks storage and regenerates on collision.
func (g *Generator) Generate(prefix string) string {
	now := g.now()
	millis := now.Nanosecond() / int(time.Millisecond)

	g.mu.Lock()
	random := 100000 + g.rng.Intn(900000)
	g.mu.Unlock()

	return fmt.Sprintf("%s-%d-%03d%06d", prefix, now.Year(), millis, random)
}
