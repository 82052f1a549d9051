package price

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"blackmarket-trader/internal/models"
)

// Source reports the market's dynamic price for an item type.
// The second return value is false when the market has no price for it.
type Source interface {
	PriceFor(templateID string) (int, bool)
}

// Catalog enumerates every item type known to the host, in a stable order.
type Catalog interface {
	Templates() []models.ItemTemplate
}

type Options struct {
	IgnoreMarketEligibility bool
	ExportToFile            bool
	ExportPath              string
}

// Resolver rebuilds the price table from the live market on demand.
type Resolver struct {
	catalog Catalog
	source  Source
	opts    Options
	log     logrus.FieldLogger
	now     func() time.Time

	current atomic.Pointer[Table]

	mu        sync.Mutex
	listeners []func(*Table)
}

func NewResolver(catalog Catalog, source Source, opts Options, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		catalog: catalog,
		source:  source,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
}

// OnRebuild registers fn to be called with every freshly built table.
func (r *Resolver) OnRebuild(fn func(*Table)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Current returns the last built table, or nil before the first build.
func (r *Resolver) Current() *Table {
	return r.current.Load()
}

// ResolveAll builds a new table from scratch and publishes it. Callers that go on to
// read prices must use the returned table rather than Current, so that a build and
// the reads that follow it see the same snapshot.
func (r *Resolver) ResolveAll() (*Table, error) {
	templates := r.catalog.Templates()
	entries := make([]Entry, 0, len(templates))

	for _, tpl := range templates {
		price, ok := r.source.PriceFor(tpl.ID)
		if !ok {
			r.log.Debugf("Item has no market price %s", tpl.ID)
			continue
		}
		if !tpl.CanSellOnMarket && !r.opts.IgnoreMarketEligibility {
			r.log.Debugf("Item cannot be sold on flea market %s", tpl.ID)
			continue
		}
		r.log.Debugf("Registering item price for %s %d", tpl.ID, price)
		entries = append(entries, Entry{TemplateID: tpl.ID, Name: tpl.Name, Price: price})
	}

	table := newTable(entries, len(templates)-len(entries), r.now())
	r.current.Store(table)

	r.log.Infof("Registered %d prices", table.Len())
	r.log.Debugf("Could not register prices for %d items", table.Skipped())

	if r.opts.ExportToFile {
		if err := exportCSV(table, r.opts.ExportPath); err != nil {
			return nil, err
		}
		r.log.Info("Exported item prices into csv file")
	}

	r.mu.Lock()
	listeners := append([]func(*Table){}, r.listeners...)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn(table)
	}

	return table, nil
}

func exportCSV(table *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export price table: %w", err)
	}
	if err := table.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("export price table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export price table: %w", err)
	}
	return nil
}
