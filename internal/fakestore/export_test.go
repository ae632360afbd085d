package fakestore

// CachedIDs returns the number of by-id entries held, fresh or not.
func (c *Cached) CachedIDs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}
