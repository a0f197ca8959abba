// Package source holds the parsed documents that executor sets validate.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/antchfx/xmlquery"
)

// Document errors
var (
	ErrNoRootElement = errors.New("document has no root element")
	ErrEmptySystemID = errors.New("document system ID cannot be empty")
)

// Document is a parsed XML business document plus the identity used in
// finding locations. It is read-only once parsed and may be shared between
// concurrent runs.
type Document struct {
	systemID string
	root     *xmlquery.Node
	element  *xmlquery.Node
}

// New wraps an already parsed tree.
func New(systemID string, root *xmlquery.Node) (*Document, error) {
	if systemID == "" {
		return nil, ErrEmptySystemID
	}
	if root == nil {
		return nil, ErrNoRootElement
	}
	element := firstElement(root)
	if element == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRootElement, systemID)
	}
	return &Document{systemID: systemID, root: root, element: element}, nil
}

// Parse reads an XML document from r.
func Parse(systemID string, r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", systemID, err)
	}
	return New(systemID, root)
}

// ParseBytes parses an in-memory document.
func ParseBytes(systemID string, data []byte) (*Document, error) {
	return Parse(systemID, bytes.NewReader(data))
}

// ParseFile parses the file at path. The cleaned path becomes the system ID.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path names the document being validated
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Parse(filepath.Clean(path), f)
}

// SystemID returns the document identity.
func (d *Document) SystemID() string {
	return d.systemID
}

// Root returns the document node.
func (d *Document) Root() *xmlquery.Node {
	return d.root
}

// RootElement returns the top-level element.
func (d *Document) RootElement() *xmlquery.Node {
	return d.element
}

// RootName returns the local name and namespace URI of the root element.
func (d *Document) RootName() (local, namespace string) {
	return d.element.Data, d.element.NamespaceURI
}

// Navigator returns a fresh XPath navigator positioned at the document node.
func (d *Document) Navigator() *xmlquery.NodeNavigator {
	return xmlquery.CreateXPathNavigator(d.root)
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	if n.Type == xmlquery.ElementNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}
