package syncer

import "sync"

// singleFlight collapses concurrent syncs for the same cache key into one
// execution; late callers get the first caller's result.
type singleFlight struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	wg  sync.WaitGroup
	res Result
}

// Do runs fn for key unless a run is already in flight, in which case it
// waits for and returns that run's result. The bool reports whether the
// result was shared.
func (g *singleFlight) Do(key string, fn func() Result) (Result, bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call)
	}

	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.res, true
	}

	c := &call{}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	c.res = fn()
	c.wg.Done()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return c.res, false
}
