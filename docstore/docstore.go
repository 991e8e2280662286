// Package docstore is the boundary to the hosted document database backing
// the guidance office. It exposes collection-scoped CRUD plus filtered
// listing over schemaless documents, and ships two backends: Redis
// (go-redis) and Postgres (pgx, one JSONB table).
//
// The store is the sole source of truth and the sole concurrency arbiter.
// Implementations do not lock around read-modify-write sequences; callers
// that need stronger guarantees must serialize at a higher level.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	// ErrNotFound is returned when no document matches the requested ID.
	ErrNotFound = errors.New("document not found")
	// ErrUnavailable wraps backend connectivity and query failures.
	ErrUnavailable = errors.New("document store unavailable")
)

// Fields is the schemaless attribute set of a document. Values survive a
// JSON round-trip, so numeric attributes come back as float64; use the
// typed accessors instead of direct assertions.
type Fields map[string]any

// Document is a stored record: a unique identifier plus arbitrary fields.
type Document struct {
	ID     string
	Fields Fields
}

// String returns the named field as a string, or "" when absent or not a
// string.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Int64 returns the named field as an int64. JSON decoding produces
// float64, so all common numeric representations are accepted.
func (f Fields) Int64(key string) int64 {
	switch v := f[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

// Bool returns the named field as a bool, or false when absent.
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Op selects the comparison applied by a Filter.
type Op int

const (
	// OpEq matches documents whose field equals the filter value.
	OpEq Op = iota
	// OpLt matches documents whose numeric field is strictly less than
	// the filter value.
	OpLt
)

// Filter is a single field predicate.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query narrows and orders a List call. A zero Query returns the whole
// collection.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter { return Filter{Field: field, Op: OpEq, Value: value} }

// Lt is shorthand for a numeric less-than filter.
func Lt(field string, value any) Filter { return Filter{Field: field, Op: OpLt, Value: value} }

// Store is the document-store collaborator contract. Create generates the
// document ID; Update merges the given fields into the existing document.
type Store interface {
	Create(ctx context.Context, collection string, fields Fields) (Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	Update(ctx context.Context, collection, id string, fields Fields) (Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// matches reports whether doc satisfies every filter in q.
func matches(doc Document, q Query) bool {
	for _, f := range q.Filters {
		v, ok := doc.Fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEq:
			if !valuesEqual(v, f.Value) {
				return false
			}
		case OpLt:
			a, aok := toFloat(v)
			b, bok := toFloat(f.Value)
			if !aok || !bok || !(a < b) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// sortAndLimit applies q's ordering and limit to docs in place and returns
// the trimmed slice.
func sortAndLimit(docs []Document, q Query) []Document {
	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			less := valueLess(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy])
			if q.Desc {
				return !less && !valuesEqual(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy])
			}
			return less
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return stringify(a) == stringify(b)
}

func valueLess(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa < fb
		}
	}
	return stringify(a) < stringify(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// cloneFields deep-copies one level of fields. Nested maps are shared;
// documents are treated as write-once at each level.
func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
