package source

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// ErrXPath wraps compile and evaluation failures.
var ErrXPath = errors.New("xpath error")

// Expr is a compiled XPath expression that can be evaluated from many
// goroutines. A compiled xpath query keeps iteration state, so every
// evaluation borrows its own compiled copy from a pool.
type Expr struct {
	text       string
	namespaces map[string]string
	pool       sync.Pool
}

// NodeSet is a materialized node-set result, in document order.
type NodeSet []*xmlquery.NodeNavigator

// Compile compiles expr with the given prefix -> namespace URI bindings.
func Compile(expr string, namespaces map[string]string) (*Expr, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrXPath)
	}
	first, err := compile(expr, namespaces)
	if err != nil {
		return nil, err
	}
	e := &Expr{text: expr, namespaces: make(map[string]string, len(namespaces))}
	for prefix, uri := range namespaces {
		e.namespaces[prefix] = uri
	}
	e.pool.New = func() any {
		// Same input already compiled once.
		x, _ := compile(e.text, e.namespaces)
		return x
	}
	e.pool.Put(first)
	return e, nil
}

func compile(expr string, namespaces map[string]string) (compiled *xpath.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			compiled, err = nil, fmt.Errorf("%w: compile %q: %v", ErrXPath, expr, r)
		}
	}()
	compiled, err = xpath.CompileWithNS(expr, namespaces)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", ErrXPath, expr, err)
	}
	return compiled, nil
}

// String returns the source text of the expression.
func (e *Expr) String() string {
	return e.text
}

func (e *Expr) borrow() *xpath.Expr {
	return e.pool.Get().(*xpath.Expr)
}

func (e *Expr) release(x *xpath.Expr) {
	e.pool.Put(x)
}

// Evaluate evaluates expr with at as the context node. at is copied. A
// node-set result is returned as a NodeSet.
func Evaluate(expr *Expr, at *xmlquery.NodeNavigator) (v any, err error) {
	x := expr.borrow()
	defer expr.release(x)
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: evaluate %q: %v", ErrXPath, expr, r)
		}
	}()

	v = x.Evaluate(at.Copy())
	if iter, ok := v.(*xpath.NodeIterator); ok {
		var nodes NodeSet
		for iter.MoveNext() {
			if nav, ok := iter.Current().Copy().(*xmlquery.NodeNavigator); ok {
				nodes = append(nodes, nav)
			}
		}
		return nodes, nil
	}
	return v, nil
}

// Test evaluates expr at the context node and applies XPath boolean().
func Test(expr *Expr, at *xmlquery.NodeNavigator) (bool, error) {
	v, err := Evaluate(expr, at)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// Truthy applies XPath boolean() to an evaluation result: a node-set is true
// when non-empty, a number when non-zero and not NaN, a string when non-empty.
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	case NodeSet:
		return len(t) > 0
	default:
		return false
	}
}

// StringValue applies XPath string() to an evaluation result.
func StringValue(v any) string {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	case NodeSet:
		if len(t) > 0 {
			return t[0].Value()
		}
		return ""
	default:
		return ""
	}
}

// Select calls fn with a navigator for every node expr selects from at, in
// document order, until fn returns false.
func Select(expr *Expr, at *xmlquery.NodeNavigator, fn func(*xmlquery.NodeNavigator) bool) (err error) {
	x := expr.borrow()
	defer expr.release(x)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: select %q: %v", ErrXPath, expr, r)
		}
	}()
	iter := x.Select(at.Copy())
	for iter.MoveNext() {
		nav, ok := iter.Current().Copy().(*xmlquery.NodeNavigator)
		if !ok {
			continue
		}
		if !fn(nav) {
			return nil
		}
	}
	return nil
}

// PathOf renders the position of the navigator's node, e.g.
// /Invoice[1]/cac:AccountingSupplierParty[1]/@schemeID.
func PathOf(nav *xmlquery.NodeNavigator) string {
	if nav.NodeType() == xpath.AttributeNode {
		owner := nav.Copy()
		owner.MoveToParent()
		name := nav.LocalName()
		if p := nav.Prefix(); p != "" {
			name = p + ":" + name
		}
		return pathOf(owner.(*xmlquery.NodeNavigator).Current()) + "/@" + name
	}
	return pathOf(nav.Current())
}

func pathOf(n *xmlquery.Node) string {
	var parts []string
	for ; n != nil; n = n.Parent {
		if n.Type == xmlquery.ElementNode {
			parts = append(parts, fmt.Sprintf("%s[%d]", qualified(n), position(n)))
		}
	}
	if len(parts) == 0 {
		return "/"
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return b.String()
}

func qualified(n *xmlquery.Node) string {
	if n.Prefix == "" {
		return n.Data
	}
	return n.Prefix + ":" + n.Data
}

func position(n *xmlquery.Node) int {
	pos := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == xmlquery.ElementNode && s.Data == n.Data && s.NamespaceURI == n.NamespaceURI {
			pos++
		}
	}
	return pos
}
