package script

import "sync"

// EnginePool recycles engine sessions of one registered type, for hosts
// that evaluate many scripts and want to skip interpreter construction
// each time. A pooled engine is still single-threaded while checked
// out; only the pool itself is safe for concurrent Get/Put.
type EnginePool struct {
	engineType string
	m          sync.Mutex
	saved      []Engine
}

func NewEnginePool(engineType string) *EnginePool {
	return &EnginePool{engineType: engineType}
}

// Get returns a recycled engine, or constructs one through the engine
// registry. Nil when the type was never registered.
func (ep *EnginePool) Get() Engine {
	ep.m.Lock()
	defer ep.m.Unlock()
	n := len(ep.saved)
	if n == 0 {
		return NewEngine(ep.engineType)
	}
	e := ep.saved[n-1]
	ep.saved = ep.saved[:n-1]
	return e
}

// Put returns an engine to the pool for reuse. A failed evaluation
// leaves an engine reusable, so callers may pool it regardless of the
// last eval result.
func (ep *EnginePool) Put(e Engine) {
	if e == nil {
		return
	}
	ep.m.Lock()
	defer ep.m.Unlock()
	ep.saved = append(ep.saved, e)
}

// Shutdown closes every pooled engine.
func (ep *EnginePool) Shutdown() {
	ep.m.Lock()
	defer ep.m.Unlock()
	for _, e := range ep.saved {
		e.Close()
	}
	ep.saved = nil
}
