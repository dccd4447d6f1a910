package export

// Field is a labelled value inside an exported document.
type Field struct {
	Label string
	Value string
}

// Table holds tabular rows keyed by the header order.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Document is a renderable memo export.
type Document struct {
	Title  string
	Meta   []Field
	Body   []Field
	Status Table
}
