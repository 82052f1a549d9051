package price

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// Entry is one sellable item type and its resolved price
type Entry struct {
	TemplateID string `json:"tpl"`
	Name       string `json:"name"`
	Price      int    `json:"price"`
}

// Table is an immutable snapshot of resolved sell prices.
// Entries keep the catalog iteration order of the build that produced them.
type Table struct {
	entries []Entry
	index   map[string]int
	skipped int
	builtAt time.Time
}

func newTable(entries []Entry, skipped int, builtAt time.Time) *Table {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.TemplateID] = i
	}
	return &Table{
		entries: entries,
		index:   index,
		skipped: skipped,
		builtAt: builtAt,
	}
}

// Price returns the resolved price for an item type.
func (t *Table) Price(templateID string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[templateID]
	if !ok {
		return 0, false
	}
	return t.entries[i].Price, true
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Skipped is the number of catalog types left out of the table.
func (t *Table) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}

func (t *Table) BuiltAt() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.builtAt
}

// Entries returns a copy of the table rows.
func (t *Table) Entries() []Entry {
	if t == nil {
		return []Entry{}
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// WriteCSV writes one "tpl,name,price" line per entry, without a header.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if t != nil {
		for _, e := range t.entries {
			if err := cw.Write([]string{e.TemplateID, e.Name, strconv.Itoa(e.Price)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
