package modsdiff

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"sort"
	"strings"
)

type node struct {
	name     xml.Name
	attrs    []xml.Attr
	text     string
	children []*node
}

// XMLEqual reports whether two documents have the same elements, attributes and text.
// Namespace prefixes, attribute order, comments, processing instructions and whitespace
// around text are not significant.
func XMLEqual(a, b []byte) (bool, error) {
	ra, err := parseTree(a)
	if err != nil {
		return false, err
	}
	rb, err := parseTree(b)
	if err != nil {
		return false, err
	}
	return ra.equal(rb), nil
}

func parseTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *node
	stack := make([]*node, 0)
	texts := make([]*strings.Builder, 0)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name, attrs: significantAttrs(t.Attr)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.EndElement:
			n := stack[len(stack)-1]
			n.text = strings.TrimSpace(texts[len(texts)-1].String())
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]
		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

func significantAttrs(attrs []xml.Attr) []xml.Attr {
	out := make([]xml.Attr, 0, len(attrs))
	for _, a := range attrs {
		// namespace declarations are already applied to element names
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name.Space != out[j].Name.Space {
			return out[i].Name.Space < out[j].Name.Space
		}
		return out[i].Name.Local < out[j].Name.Local
	})
	return out
}

func (n *node) equal(o *node) bool {
	if n.name != o.name || n.text != o.text {
		return false
	}
	if len(n.attrs) != len(o.attrs) || len(n.children) != len(o.children) {
		return false
	}
	for i := range n.attrs {
		if n.attrs[i].Name != o.attrs[i].Name || strings.TrimSpace(n.attrs[i].Value) != strings.TrimSpace(o.attrs[i].Value) {
			return false
		}
	}
	for i := range n.children {
		if !n.children[i].equal(o.children[i]) {
			return false
		}
	}
	return true
}
