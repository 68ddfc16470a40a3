package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Direction is the sort order of one index key.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// Key is a single field of an index.
type Key struct {
	Field     string
	Direction Direction
}

// Index is an ordered list of keys. A single key makes a single-field index.
type Index struct {
	Keys []Key
}

// Collection names a collection and the secondary indexes it carries.
type Collection struct {
	Name    string
	Indexes []Index
}

// Layout is the full set of collections expected in one database.
type Layout struct {
	Database    string
	Collections []Collection
}

// MarketData returns the layout of the market_data database.
func MarketData() Layout {
	return Layout{
		Database: "market_data",
		Collections: []Collection{
			{
				Name: "sample_data",
				Indexes: []Index{
					NewIndex(Key{"ticker", Ascending}, Key{"timestamp", Descending}),
					NewIndex(Key{"timestamp", Descending}),
				},
			},
			{
				Name: "alerts",
				Indexes: []Index{
					NewIndex(Key{"timestamp", Descending}),
					NewIndex(Key{"acknowledged", Ascending}),
				},
			},
			{Name: "news"},
		},
	}
}

// NewIndex builds an index from its keys, in order.
func NewIndex(keys ...Key) Index {
	return Index{Keys: keys}
}

// Name returns the name MongoDB generates for the index when none is given.
func (i Index) Name() string {
	parts := make([]string, 0, len(i.Keys)*2)
	for _, k := range i.Keys {
		parts = append(parts, k.Field, strconv.Itoa(int(k.Direction)))
	}
	return strings.Join(parts, "_")
}

// Document returns the ordered key document passed to createIndexes.
func (i Index) Document() bson.D {
	doc := make(bson.D, 0, len(i.Keys))
	for _, k := range i.Keys {
		doc = append(doc, bson.E{Key: k.Field, Value: int32(k.Direction)})
	}
	return doc
}

// CollectionNames returns collection names in declaration order.
func (l Layout) CollectionNames() []string {
	names := make([]string, 0, len(l.Collections))
	for _, c := range l.Collections {
		names = append(names, c.Name)
	}
	return names
}

// IndexCount returns the number of declared secondary indexes.
func (l Layout) IndexCount() int {
	n := 0
	for _, c := range l.Collections {
		n += len(c.Indexes)
	}
	return n
}

// Validate reports the first structural problem in the layout.
func (l Layout) Validate() error {
	if strings.TrimSpace(l.Database) == "" {
		return errors.New("database name is empty")
	}

	seen := make(map[string]struct{}, len(l.Collections))
	for _, c := range l.Collections {
		if strings.TrimSpace(c.Name) == "" {
			return errors.New("collection name is empty")
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("collection %s declared twice", c.Name)
		}
		seen[c.Name] = struct{}{}

		for n, idx := range c.Indexes {
			if len(idx.Keys) == 0 {
				return fmt.Errorf("collection %s: index %d has no keys", c.Name, n)
			}
			for _, k := range idx.Keys {
				if strings.TrimSpace(k.Field) == "" {
					return fmt.Errorf("collection %s: index %d has an empty field", c.Name, n)
				}
				if k.Direction != Ascending && k.Direction != Descending {
					return fmt.Errorf("collection %s: field %s has direction %d", c.Name, k.Field, k.Direction)
				}
			}
		}
	}

	return nil
}
