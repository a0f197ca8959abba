package testutil

// WithStandardInvoices adds one document per interesting case of the
// example rule tree:
//
//	valid.xml       passes every layer
//	austria.xml     Austrian buyer without order reference (AT-01)
//	usd.xml         currency outside the code list
//	undated.xml     missing issue date (BR-02)
//	creditnote.xml  wrong root element
func (b *Builder) WithStandardInvoices() *Builder {
	return b.
		WithInvoice("valid.xml", Line("1", "100.00")).
		WithInvoice("austria.xml", BuyerCountry("AT")).
		WithInvoice("usd.xml", Currency("USD")).
		WithInvoice("undated.xml", IssueDate("")).
		WithInvoice("creditnote.xml", Root("CreditNote"))
}
