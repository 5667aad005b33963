package aspace

import (
	"log"
)

// MaxAncestors bounds the number of parent hops taken while building a chain
const MaxAncestors = 100

// Chain is the ancestry of a leaf archival object: the leaf, its parent archival objects
// nearest first, and the resource that owns them.
type Chain struct {
	Leaf     Record
	Parents  []Record
	Resource Record
}

// Records returns the chain in inheritance order: [leaf, parents..., resource]
func (c *Chain) Records() []Record {
	out := make([]Record, 0, len(c.Parents)+2)
	out = append(out, c.Leaf)
	out = append(out, c.Parents...)
	if c.Resource != nil {
		out = append(out, c.Resource)
	}
	return out
}

// Objects returns the archival object portion of the chain: [leaf, parents...]
func (c *Chain) Objects() []Record {
	out := make([]Record, 0, len(c.Parents)+1)
	out = append(out, c.Leaf)
	return append(out, c.Parents...)
}

// BuildChain follows parent references from leaf until they run out, then appends the
// resource named by the leaf. The walk ends early on a repeated uri or after MaxAncestors
// hops. A leaf without a resource reference is an error.
func BuildChain(leaf Record, f Fetcher) (*Chain, error) {
	resRef, ok := leaf.Ref("resource")
	if !ok {
		return nil, &MissingReferenceError{URI: leaf.URI(), Field: "resource"}
	}

	chain := Chain{Leaf: leaf, Parents: make([]Record, 0)}
	seen := map[string]bool{leaf.URI(): true}
	curr := leaf
	for hop := 0; hop < MaxAncestors; hop++ {
		parentRef, ok := curr.Ref("parent")
		if !ok {
			break
		}
		if seen[parentRef.URI] {
			log.Printf("WARNING: parent cycle detected at %s in ancestry of %s", parentRef.URI, leaf.URI())
			break
		}
		seen[parentRef.URI] = true

		parent, err := f.Fetch(parentRef.URI)
		if err != nil {
			log.Printf("WARNING: unable to get parent %s of %s; ancestry truncated: %s", parentRef.URI, curr.URI(), err.Error())
			break
		}
		chain.Parents = append(chain.Parents, parent)
		curr = parent
	}
	if len(chain.Parents) == MaxAncestors {
		log.Printf("WARNING: ancestry of %s stopped at %d parents", leaf.URI(), MaxAncestors)
	}

	resource, err := f.Fetch(resRef.URI)
	if err != nil {
		return nil, unresolvable(resRef.URI, err)
	}
	chain.Resource = resource
	return &chain, nil
}

func unresolvable(uri string, err error) error {
	if ure, ok := err.(*UnresolvableReferenceError); ok {
		return ure
	}
	return &UnresolvableReferenceError{URI: uri, Err: err}
}
