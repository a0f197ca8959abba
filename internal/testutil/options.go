package testutil

// lineData holds one invoice line.
type lineData struct {
	id     string
	amount string
}

// invoiceData holds everything rendered into an invoice document.
type invoiceData struct {
	root           string
	namespace      string
	id             string
	issueDate      string
	currency       string
	buyerCountry   string
	orderReference string
	lines          []lineData
}

// defaultInvoice returns a document that passes the example rule tree.
func defaultInvoice(id string) invoiceData {
	return invoiceData{
		root:         "Invoice",
		id:           id,
		issueDate:    "2025-01-31",
		currency:     "EUR",
		buyerCountry: "NO",
	}
}

// InvoiceOption configures an invoice during builder setup.
type InvoiceOption func(*invoiceData)

// Root renames the root element, e.g. "CreditNote".
func Root(name string) InvoiceOption {
	return func(d *invoiceData) { d.root = name }
}

// Namespace puts every element in ns.
func Namespace(ns string) InvoiceOption {
	return func(d *invoiceData) { d.namespace = ns }
}

// IssueDate sets the issue date; empty omits the element.
func IssueDate(date string) InvoiceOption {
	return func(d *invoiceData) { d.issueDate = date }
}

// Currency sets the document currency; empty omits the element.
func Currency(code string) InvoiceOption {
	return func(d *invoiceData) { d.currency = code }
}

// BuyerCountry sets the buyer country; empty omits the Buyer element.
func BuyerCountry(code string) InvoiceOption {
	return func(d *invoiceData) { d.buyerCountry = code }
}

// OrderReference sets the order reference.
func OrderReference(ref string) InvoiceOption {
	return func(d *invoiceData) { d.orderReference = ref }
}

// Line appends an invoice line.
func Line(id, amount string) InvoiceOption {
	return func(d *invoiceData) { d.lines = append(d.lines, lineData{id: id, amount: amount}) }
}

// NoID omits the ID element.
func NoID() InvoiceOption {
	return func(d *invoiceData) { d.id = "" }
}
