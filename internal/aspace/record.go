// Package aspace resolves ArchivesSpace description records into the flat data used to
// generate MODS metadata. Records are walked from a leaf archival object up through its
// parents to the owning resource, and descriptive fields are inherited along that chain.
package aspace

import (
	"fmt"
	"strings"
)

// Record is a single ArchivesSpace JSON object: archival object, resource, repository,
// agent, subject, digital object or top container.
type Record map[string]interface{}

// Ref is a reference from one record to another. Role is only set for linked agents.
type Ref struct {
	URI     string `json:"ref"`
	Role    string `json:"role,omitempty"`
	Relator string `json:"relator,omitempty"`
}

// URI returns the uri of the record or an empty string
func (r Record) URI() string {
	return r.String("uri")
}

// String returns the string value of a field. Missing or nil fields are empty.
func (r Record) String(field string) string {
	val, ok := r[field]
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}

// Has reports whether field is present with a non-nil value
func (r Record) Has(field string) bool {
	val, ok := r[field]
	return ok && val != nil
}

// Object returns a nested JSON object field as a Record
func (r Record) Object(field string) (Record, bool) {
	return asRecord(r[field])
}

// Objects returns a list field as records. Entries that are not objects are skipped.
func (r Record) Objects(field string) []Record {
	list, ok := r[field].([]interface{})
	if !ok {
		if recs, ok := r[field].([]Record); ok {
			return recs
		}
		return nil
	}
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if rec, ok := asRecord(item); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Strings returns a field holding a string or list of strings
func (r Record) Strings(field string) []string {
	switch val := r[field].(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, v := range val {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Ref returns the reference held in field, eg: record["parent"]["ref"]
func (r Record) Ref(field string) (Ref, bool) {
	obj, ok := r.Object(field)
	if !ok {
		return Ref{}, false
	}
	ref := refFromObject(obj)
	return ref, ref.URI != ""
}

// Refs returns all references in a list field. A missing field yields no references.
func (r Record) Refs(field string) []Ref {
	out := make([]Ref, 0)
	for _, obj := range r.Objects(field) {
		ref := refFromObject(obj)
		if ref.URI != "" {
			out = append(out, ref)
		}
	}
	return out
}

// Clone makes a copy of the record with its own copies of nested objects and lists
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return cloneValue(map[string]interface{}(r)).(Record)
}

// ID returns the final numeric component of the record uri
func (r Record) ID() string {
	return lastSegment(r.URI())
}

func refFromObject(obj Record) Ref {
	return Ref{URI: obj.String("ref"), Role: obj.String("role"), Relator: obj.String("relator")}
}

func asRecord(val interface{}) (Record, bool) {
	switch v := val.(type) {
	case Record:
		return v, true
	case map[string]interface{}:
		return Record(v), true
	}
	return nil, false
}

func cloneValue(val interface{}) interface{} {
	switch v := val.(type) {
	case Record:
		out := make(Record, len(v))
		for k, item := range v {
			out[k] = cloneValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(Record, len(v))
		for k, item := range v {
			out[k] = cloneValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	}
	return val
}

func lastSegment(uri string) string {
	bits := strings.Split(strings.TrimRight(uri, "/"), "/")
	return bits[len(bits)-1]
}
