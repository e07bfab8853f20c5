package catalog

import (
	"strings"
	"sync"
)

// Lookup is the read-only in-memory product table enrichment runs against.
// It may be empty until the first catalog load completes; readers degrade to
// fallback display fields rather than block.
type Lookup struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewLookup() *Lookup {
	return &Lookup{products: make(map[string]Product)}
}

// Product returns the product for the given id.
func (l *Lookup) Product(id string) (Product, bool) {
	if l == nil {
		return Product{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.products[strings.TrimSpace(id)]
	return p, ok
}

// Replace swaps the full product set in one step.
func (l *Lookup) Replace(products []Product) {
	next := make(map[string]Product, len(products))
	for _, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		next[id] = p
	}
	l.mu.Lock()
	l.products = next
	l.mu.Unlock()
}

// Len reports how many products are loaded.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.products)
}
