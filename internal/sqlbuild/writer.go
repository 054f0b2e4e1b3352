package sqlbuild

import (
	"strings"

	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

// writer accumulates SQL text and bound arguments for one statement.
type writer struct {
	d    *dialect.Dialect
	sb   strings.Builder
	args []any
}

func newWriter(d *dialect.Dialect) *writer {
	return &writer{d: d}
}

func (w *writer) raw(s string) {
	w.sb.WriteString(s)
}

func (w *writer) ident(name string) {
	w.sb.WriteString(w.d.QuoteIdentifier(name))
}

func (w *writer) param(v any) {
	w.args = append(w.args, v)
	w.sb.WriteString(w.d.FormatPlaceholder(len(w.args)))
}

func (w *writer) result() (string, []any) {
	return w.sb.String(), w.args
}
