// Package output renders CLI command results, adapted from the
// teacher's internal/cli/output package.
package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that can render themselves as
// a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a formatted table to w.
func PrintTable(w io.Writer, data TableRenderer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
}

// UserTable is a TableRenderer over a fixed id/username/admin/active
// column set, the shape the user-management commands print.
type UserTable struct {
	rows [][]string
}

func NewUserTable() *UserTable {
	return &UserTable{}
}

func (t *UserTable) AddRow(id, username, isAdmin, isActive string) {
	t.rows = append(t.rows, []string{id, username, isAdmin, isActive})
}

func (t *UserTable) Headers() []string {
	return []string{"ID", "Username", "Admin", "Active"}
}

func (t *UserTable) Rows() [][]string {
	return t.rows
}
