package export

const defaultIndent = "  "

// Option configures a Writer.
type Option func(*Writer)

// WithIndent sets the indentation string used for the JSON output.
func WithIndent(indent string) Option {
	return func(w *Writer) {
		w.indent = indent
	}
}
