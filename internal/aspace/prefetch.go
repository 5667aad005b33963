package aspace

import (
	"log"
	"strings"
)

// BulkFetcher retrieves many records in as few requests as it can. Records it cannot
// retrieve are simply absent from the result.
type BulkFetcher interface {
	FetchMany(uris []string) ([]Record, error)
}

// TreeURIs walks a resource tree response (as returned by /resources/:id/tree) and returns
// the record_uri of every archival object in it, in document order. Nodes deeper than
// maxDepth levels below the root are not visited.
func TreeURIs(tree Record, maxDepth int) []string {
	type node struct {
		rec   Record
		depth int
	}
	out := make([]string, 0)
	stack := []node{{rec: tree, depth: 0}}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		uri := curr.rec.String("record_uri")
		if strings.Contains(uri, "/archival_objects/") {
			out = append(out, uri)
		}
		if curr.depth >= maxDepth {
			continue
		}
		children := curr.rec.Objects("children")
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, node{rec: children[i], depth: curr.depth + 1})
		}
	}
	return out
}

// RelatedURIs lists every uri referenced by rec that resolution may need: parent,
// resource, repository, linked agents, subjects, digital objects and top containers.
func RelatedURIs(rec Record) []string {
	out := make([]string, 0)
	for _, field := range []string{"parent", "resource", "repository"} {
		if ref, ok := rec.Ref(field); ok {
			out = append(out, ref.URI)
		}
	}
	for _, field := range []string{"linked_agents", "subjects"} {
		for _, ref := range rec.Refs(field) {
			out = append(out, ref.URI)
		}
	}
	for _, ref := range DigitalObjectRefs(rec) {
		out = append(out, ref.URI)
	}
	if ref, ok := TopContainerRef(rec); ok {
		out = append(out, ref.URI)
	}
	return out
}

// Prefetch loads the records named by uris into cache, then keeps loading whatever those
// records reference until nothing new turns up. The number of rounds is bounded by
// MaxAncestors+1, which covers the deepest parent chain that resolution will walk.
func Prefetch(cache *Cache, bulk BulkFetcher, uris []string) error {
	// records that were requested but not returned are not requested again
	attempted := make(map[string]bool)
	pending := cache.Missing(uris)
	for round := 0; len(pending) > 0 && round <= MaxAncestors; round++ {
		log.Printf("INFO: prefetch round %d: %d records", round+1, len(pending))
		recs, err := bulk.FetchMany(pending)
		if err != nil {
			return err
		}
		for _, uri := range pending {
			attempted[uri] = true
		}

		next := make([]string, 0)
		for _, rec := range recs {
			if !cache.Put(rec.URI(), rec) {
				continue
			}
			for _, uri := range RelatedURIs(rec) {
				if !attempted[uri] {
					next = append(next, uri)
				}
			}
		}
		pending = cache.Missing(next)
	}
	log.Printf("INFO: prefetch complete; %d records cached", cache.Len())
	return nil
}
