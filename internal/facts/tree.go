// Package facts flattens an EDGAR companyfacts document into the Raw Financials
// and Account Attributes tables.
//
// The document is parsed into an order-preserving tree so that "first unit" and
// "first discovered" are defined by the upstream byte order, not by Go map iteration.
package facts

import (
	"bytes"
	"fmt"

	"github.com/buger/jsonparser"
)

// Kind tags the variant held by a Node
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "null"
	}
}

// Node is one value of a parsed JSON document.
// Objects keep their keys in document order; a repeated key keeps its first
// position and its last value.
type Node struct {
	kind   Kind
	text   string
	keys   []string
	fields map[string]*Node
	items  []*Node
}

// Parse builds a tree from raw JSON. Anything but whitespace after the
// top-level value is an error.
func Parse(data []byte) (*Node, error) {
	value, dataType, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if rest := bytes.TrimSpace(data[end:]); len(rest) > 0 {
		return nil, fmt.Errorf("parse json: unexpected data after top-level value at offset %d", end)
	}
	return parseValue(value, dataType)
}

func parseValue(value []byte, dataType jsonparser.ValueType) (*Node, error) {
	switch dataType {
	case jsonparser.Object:
		n := &Node{kind: KindObject, fields: make(map[string]*Node)}
		err := jsonparser.ObjectEach(value, func(rawKey []byte, v []byte, vt jsonparser.ValueType, _ int) error {
			key, err := jsonparser.ParseString(rawKey)
			if err != nil {
				return fmt.Errorf("object key: %w", err)
			}
			child, err := parseValue(v, vt)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if _, dup := n.fields[key]; !dup {
				n.keys = append(n.keys, key)
			}
			n.fields[key] = child
			return nil
		})
		if err != nil {
			return nil, err
		}
		return n, nil

	case jsonparser.Array:
		n := &Node{kind: KindArray}
		var itemErr error
		_, err := jsonparser.ArrayEach(value, func(v []byte, vt jsonparser.ValueType, _ int, err error) {
			if itemErr != nil {
				return
			}
			if err != nil {
				itemErr = err
				return
			}
			child, err := parseValue(v, vt)
			if err != nil {
				itemErr = fmt.Errorf("[%d]: %w", len(n.items), err)
				return
			}
			n.items = append(n.items, child)
		})
		if err != nil {
			return nil, err
		}
		if itemErr != nil {
			return nil, itemErr
		}
		return n, nil

	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, err
		}
		return &Node{kind: KindString, text: s}, nil

	case jsonparser.Number:
		return &Node{kind: KindNumber, text: string(value)}, nil

	case jsonparser.Boolean:
		return &Node{kind: KindBool, text: string(value)}, nil

	case jsonparser.Null:
		return &Node{kind: KindNull}, nil
	}
	return nil, fmt.Errorf("unsupported json value type %s", dataType)
}

// Kind reports the variant; a nil node is null
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// IsObject reports whether the node is a mapping
func (n *Node) IsObject() bool { return n.Kind() == KindObject }

// IsArray reports whether the node is a sequence
func (n *Node) IsArray() bool { return n.Kind() == KindArray }

// Keys returns object keys in document order
func (n *Node) Keys() []string {
	if !n.IsObject() {
		return nil
	}
	return n.keys
}

// Get looks up a key of an object node
func (n *Node) Get(key string) (*Node, bool) {
	if !n.IsObject() {
		return nil, false
	}
	child, ok := n.fields[key]
	return child, ok
}

// Path follows a chain of object keys
func (n *Node) Path(keys ...string) (*Node, bool) {
	cur := n
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Items returns array elements
func (n *Node) Items() []*Node {
	if !n.IsArray() {
		return nil
	}
	return n.items
}

// Len is the number of keys or elements
func (n *Node) Len() int {
	switch n.Kind() {
	case KindObject:
		return len(n.keys)
	case KindArray:
		return len(n.items)
	}
	return 0
}

// Text returns the literal text of a scalar. Numbers keep their source spelling.
func (n *Node) Text() (string, bool) {
	switch n.Kind() {
	case KindString, KindNumber, KindBool:
		return n.text, true
	}
	return "", false
}
