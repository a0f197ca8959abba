// Package testutil builds XML business documents for tests.
package testutil

import (
	"bytes"
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/docval/internal/source"
)

type entry struct {
	systemID string
	data     invoiceData
}

// Builder accumulates documents and parses them in insertion order.
type Builder struct {
	t       *testing.T
	entries []entry
}

// NewBuilder creates a document builder.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithInvoice adds an invoice with optional configuration. The document ID
// defaults to the systemID.
func (b *Builder) WithInvoice(systemID string, opts ...InvoiceOption) *Builder {
	data := defaultInvoice(systemID)
	for _, opt := range opts {
		opt(&data)
	}
	b.entries = append(b.entries, entry{systemID: systemID, data: data})
	return b
}

// Build parses every accumulated document.
func (b *Builder) Build() []*source.Document {
	b.t.Helper()
	docs := make([]*source.Document, 0, len(b.entries))
	for _, e := range b.entries {
		doc, err := source.ParseBytes(e.systemID, render(e.data))
		require.NoError(b.t, err)
		docs = append(docs, doc)
	}
	return docs
}

// Invoice builds a single invoice document.
func Invoice(t *testing.T, systemID string, opts ...InvoiceOption) *source.Document {
	t.Helper()
	return NewBuilder(t).WithInvoice(systemID, opts...).Build()[0]
}

// InvoiceXML renders an invoice without parsing it.
func InvoiceXML(systemID string, opts ...InvoiceOption) []byte {
	data := defaultInvoice(systemID)
	for _, opt := range opts {
		opt(&data)
	}
	return render(data)
}

// render writes d as an XML document.
func render(d invoiceData) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<" + d.root)
	if d.namespace != "" {
		buf.WriteString(` xmlns="`)
		_ = xml.EscapeText(&buf, []byte(d.namespace))
		buf.WriteString(`"`)
	}
	buf.WriteString(">\n")
	element(&buf, "ID", d.id)
	element(&buf, "IssueDate", d.issueDate)
	element(&buf, "Currency", d.currency)
	element(&buf, "OrderReference", d.orderReference)
	if d.buyerCountry != "" {
		buf.WriteString("  <Buyer>")
		element(&buf, "Country", d.buyerCountry)
		buf.WriteString("</Buyer>\n")
	}
	for _, l := range d.lines {
		buf.WriteString("  <Line>")
		element(&buf, "ID", l.id)
		element(&buf, "Amount", l.amount)
		buf.WriteString("</Line>\n")
	}
	buf.WriteString("</" + d.root + ">\n")
	return buf.Bytes()
}

func element(buf *bytes.Buffer, name, value string) {
	if value == "" {
		return
	}
	buf.WriteString("<" + name + ">")
	_ = xml.EscapeText(buf, []byte(value))
	buf.WriteString("</" + name + ">")
}
