package engine

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Cache lazily creates and reuses one engine instance per Kokoro
// language code, so repeated calls with the same language avoid
// reinitialization cost. It is owned by the facade that created it
// and torn down with it; there is no process-global state.
type Cache struct {
	base Config

	mu      sync.Mutex
	engines map[string]Synthesizer
}

// NewCache creates an empty cache. base supplies everything but the
// language code, which is filled in per entry.
func NewCache(base Config) *Cache {
	return &Cache{
		base:    base,
		engines: make(map[string]Synthesizer),
	}
}

// Get returns the engine instance for lang, creating it on first use.
func (c *Cache) Get(lang string) (Synthesizer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if eng, ok := c.engines[lang]; ok {
		return eng, nil
	}

	cfg := c.base
	cfg.Lang = lang
	log.Debug("creating engine instance", "kind", cfg.Kind, "lang", lang)

	eng, err := New(cfg)
	if err != nil {
		return nil, err
	}
	c.engines[lang] = eng
	return eng, nil
}

// Close shuts down every cached engine. The cache must not be used
// afterwards.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for lang, eng := range c.engines {
		if err := eng.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.engines, lang)
	}
	return firstErr
}
