package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/leapstack-labs/gridsql/pkg/core"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer. ModeAuto resolves to a table on a
// terminal and markdown otherwise.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	tty := IsTerminal(out)
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  tty,
		styles: NewStyles(out, tty),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode returns the mode after resolving auto.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeTable
	}
	return ModeMarkdown
}

// Writer returns the result writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to the result writer.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the result writer.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header. Structured modes skip it.
func (r *Renderer) Header(s string) {
	if r.structured() {
		return
	}
	r.Println(r.styles.Header.Render(s))
}

// Success writes a status line to stderr.
func (r *Renderer) Success(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Success.Render("✓ "+s))
}

// Warning writes a warning line to stderr.
func (r *Renderer) Warning(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+s))
}

// Error writes an error line to stderr.
func (r *Renderer) Error(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+s))
}

// Muted renders s in the muted style.
func (r *Renderer) Muted(s string) string {
	return r.styles.Muted.Render(s)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) structured() bool {
	m := r.EffectiveMode()
	return m == ModeJSON || m == ModeCSV
}

// Table writes rows under header in the effective mode. jsonValue is
// encoded in JSON mode instead of the rows.
func (r *Renderer) Table(header []string, rows [][]any, jsonValue any) error {
	mode := r.EffectiveMode()
	if mode == ModeJSON {
		return r.JSON(jsonValue)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = FormatValue(v)
		}
		t.AppendRow(tr)
	}

	switch mode {
	case ModeCSV:
		t.RenderCSV()
		return nil
	case ModeMarkdown:
		t.RenderMarkdown()
	default:
		t.Render()
	}
	r.Println(r.Muted(fmt.Sprintf("(%d rows)", len(rows))))
	return nil
}

// Result writes a query result.
func (r *Renderer) Result(res *core.QueryResult) error {
	rows := make([][]any, res.Len())
	for i := range rows {
		rows[i] = res.Values(i)
	}
	return r.Table(res.Columns, rows, res)
}

// FormatValue renders a cell value as text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339)
	case []byte:
		return string(x)
	}
	return fmt.Sprintf("%v", v)
}

// FormatKeyValue renders an aligned "key: value" line.
func FormatKeyValue(key string, value any, width int) string {
	return fmt.Sprintf("%-*s %s", width+1, key+":", FormatValue(value))
}
