package table

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/reoring/eachrow/schemafile"
)

var ErrTableNotFound = errors.New("table not found")

// Catalog is a named set of tables safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewCatalog() *Catalog {
	return &Catalog{tables: map[string]*Table{}}
}

// Create adds an empty table for each definition. Names must be new.
func (c *Catalog) Create(defs ...schemafile.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, def := range defs {
		if _, exists := c.tables[def.Name]; exists {
			return fmt.Errorf("table %s already exists", def.Name)
		}
		t, err := New(def)
		if err != nil {
			return err
		}
		c.tables[def.Name] = t
	}
	return nil
}

func (c *Catalog) Get(name string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

// Names returns the table names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.tables))
	for name := range c.tables {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
