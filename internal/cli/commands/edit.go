package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/gridsql/internal/mutate"
)

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	var (
		rowID    string
		set      []string
		setNull  []string
		editFile string
	)

	cmd := &cobra.Command{
		Use:   "edit <table>",
		Short: "Apply cell edits to a table",
		Long: `Apply cell edits to rows identified by the row id column.

Either pass --row-id with one or more --set column=value pairs, or read a
JSON edit batch with --file ("-" for stdin). A batch is either an array of
edits or an object with an "edits" array, each edit shaped as
{"data": {...row...}, "colId": "column", "value": ...}.

Each edit is applied on its own; one failure does not stop the rest.`,
		Example: `  gridsql edit ledger --row-id T-1001 --set memo="office rent" --set category=Rent
  gridsql edit ledger --row-id T-1001 --set-null memo
  gridsql edit ledger --file edits.json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTables,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var edits []mutate.EditDescriptor
			if editFile != "" {
				edits, err = readEdits(cmd.InOrStdin(), editFile)
			} else {
				edits, err = buildEdits(cc.Engine.RowIDColumn(), rowID, set, setNull)
			}
			if err != nil {
				return err
			}

			results, err := cc.Engine.ApplyEdits(cmd.Context(), args[0], edits)
			if err != nil {
				return err
			}
			if err := renderEditResults(cc, results); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Status == mutate.StatusFailed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d edits failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rowID, "row-id", "", "Row identifier value")
	cmd.Flags().StringArrayVar(&set, "set", nil, "Assignment as column=value")
	cmd.Flags().StringArrayVar(&setNull, "set-null", nil, "Column to set to NULL")
	cmd.Flags().StringVarP(&editFile, "file", "f", "", "Read a JSON edit batch from file (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("file", "row-id")
	cmd.MarkFlagsMutuallyExclusive("file", "set")
	cmd.MarkFlagsMutuallyExclusive("file", "set-null")

	return cmd
}

// buildEdits turns --row-id/--set flags into edit descriptors.
func buildEdits(rowIDColumn, rowID string, set, setNull []string) ([]mutate.EditDescriptor, error) {
	if rowID == "" {
		return nil, errors.New("--row-id is required unless --file is given")
	}
	if len(set) == 0 && len(setNull) == 0 {
		return nil, errors.New("nothing to edit: pass --set column=value or --set-null column")
	}

	data := map[string]any{rowIDColumn: rowID}
	edits := make([]mutate.EditDescriptor, 0, len(set)+len(setNull))
	for _, assignment := range set {
		col, value, ok := strings.Cut(assignment, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --set %q: want column=value", assignment)
		}
		edits = append(edits, mutate.EditDescriptor{Data: data, ColID: col, Value: value})
	}
	for _, col := range setNull {
		edits = append(edits, mutate.EditDescriptor{Data: data, ColID: col, Value: nil})
	}
	return edits, nil
}

// readEdits decodes an edit batch. Numbers stay exact.
func readEdits(stdin io.Reader, path string) ([]mutate.EditDescriptor, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read edits: %w", err)
	}

	data = bytes.TrimSpace(data)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var edits []mutate.EditDescriptor
	if len(data) > 0 && data[0] == '[' {
		err = dec.Decode(&edits)
	} else {
		var batch struct {
			Edits []mutate.EditDescriptor `json:"edits"`
		}
		err = dec.Decode(&batch)
		edits = batch.Edits
	}
	if err != nil {
		return nil, fmt.Errorf("invalid edit batch: %w", err)
	}
	if len(edits) == 0 {
		return nil, errors.New("edit batch is empty")
	}
	return edits, nil
}

func renderEditResults(cc *CommandContext, results []mutate.EditResult) error {
	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{r.Index, r.RowID, r.Column, r.Value, string(r.Status), r.RowsAffected, r.Error}
	}
	return cc.Renderer.Table(
		[]string{"#", "row id", "column", "value", "status", "rows", "error"},
		rows,
		map[string]any{"results": results},
	)
}
