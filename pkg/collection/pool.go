package collection

import (
	"context"
	"sync"

	"github.com/foomo/recordstore/pkg/area"
	"github.com/foomo/recordstore/pkg/config"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type (
	// Pool hands out one Collection per name and area kind
	Pool struct {
		l           *zap.Logger
		areas       area.Areas
		config      config.Config
		opts        []Option
		mu          sync.Mutex
		collections map[poolKey]*Collection
	}
	poolKey struct {
		name string
		kind area.Kind
	}
)

func NewPool(l *zap.Logger, areas area.Areas, cfg config.Config, opts ...Option) *Pool {
	return &Pool{
		l:           l,
		areas:       areas,
		config:      cfg,
		opts:        opts,
		collections: map[poolKey]*Collection{},
	}
}

// Get returns the collection for name, creating it on first use. An empty
// kind resolves to the configured default area.
func (p *Pool) Get(name string, kind area.Kind) (*Collection, error) {
	if kind == "" {
		kind = p.config.DefaultArea
	}
	if _, ok := p.areas[kind]; !ok {
		kind = area.KindLocal
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := poolKey{name: name, kind: kind}
	if c, ok := p.collections[key]; ok {
		return c, nil
	}
	opts := append([]Option{WithConfig(p.config), WithAreaKind(kind)}, p.opts...)
	c, err := New(p.l, p.areas, name, opts...)
	if err != nil {
		return nil, err
	}
	p.collections[key] = c
	return c, nil
}

// Loaded reports whether every collection handed out so far has loaded its index
func (p *Pool) Loaded() bool {
	for _, c := range p.list() {
		if _, err, ok := c.Loaded().Settled(); !ok || err != nil {
			return false
		}
	}
	return true
}

// Close flushes every collection
func (p *Pool) Close(ctx context.Context) error {
	collections := p.list()
	errs := make([]error, len(collections))
	var g errgroup.Group
	for i, c := range collections {
		g.Go(func() error {
			if err := c.Close(ctx); err != nil {
				p.l.Warn("failed to flush collection", zap.String("collection", c.Name()), zap.Error(err))
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}

func (p *Pool) list() []*Collection {
	p.mu.Lock()
	defer p.mu.Unlock()
	ret := make([]*Collection, 0, len(p.collections))
	for _, c := range p.collections {
		ret = append(ret, c)
	}
	return ret
}
