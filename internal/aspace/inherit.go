package aspace

import (
	"reflect"
)

// Dereferencer turns the references found in a field into the records they point to
type Dereferencer func(refs []Ref) []Record

// DereferenceWith builds a Dereferencer backed by f. References that cannot be fetched
// are logged and skipped.
func DereferenceWith(f Fetcher) Dereferencer {
	return func(refs []Ref) []Record {
		out := make([]Record, 0, len(refs))
		for _, ref := range refs {
			if rec := fetchRef(f, ref.URI); rec != nil {
				out = append(out, rec)
			}
		}
		return out
	}
}

// ResolveLazy returns the dereferenced field values of the first record in chain that
// has any. Records missing the field contribute nothing.
func ResolveLazy(chain []Record, field string, deref Dereferencer) []Record {
	for _, rec := range chain {
		if vals := deref(rec.Refs(field)); len(vals) > 0 {
			return vals
		}
	}
	return make([]Record, 0)
}

// ResolveUnion concatenates the dereferenced field values of every record in chain,
// in chain order. Use Dedup to remove repeats.
func ResolveUnion(chain []Record, field string, deref Dereferencer) []Record {
	out := make([]Record, 0)
	for _, rec := range chain {
		out = append(out, deref(rec.Refs(field))...)
	}
	return out
}

// UnionRefs collects the references in field across the chain, in chain order
func UnionRefs(chain []Record, field string) []Ref {
	out := make([]Ref, 0)
	for _, rec := range chain {
		out = append(out, rec.Refs(field)...)
	}
	return out
}

// Dedup removes structurally equal repeats, keeping the first occurrence
func Dedup[T any](items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		dup := false
		for _, kept := range out {
			if reflect.DeepEqual(item, kept) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
		}
	}
	return out
}
