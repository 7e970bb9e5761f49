package layout

import "objrw/internal/ast"

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

type cache struct {
	byType map[ast.TypeID]cacheEntry
}

func newCache() *cache {
	return &cache{byType: make(map[ast.TypeID]cacheEntry, 64)}
}

func (c *cache) get(id ast.TypeID) (cacheEntry, bool) {
	if c == nil {
		return cacheEntry{}, false
	}
	l, ok := c.byType[id]
	return l, ok
}

func (c *cache) put(id ast.TypeID, l *cacheEntry) {
	if c == nil {
		return
	}
	if l == nil {
		delete(c.byType, id)
		return
	}
	c.byType[id] = *l
}
