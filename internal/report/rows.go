package report

// DoesNotExist stands in for both values of a governed field missing on disk.
const DoesNotExist = "DOES NOT EXIST"

var columnTitles = []string{"Field", "Existing Value", "New Value"}

// Row is one governed field in a file report.
type Row struct {
	Field    string
	Existing string
	Desired  string
}

// Changed reports whether applying the row alters the file.
func (r Row) Changed() bool {
	return r.Existing != r.Desired
}

// FileTable builds the report for one governed file.
func FileTable(path string, rows []Row, hl *Highlighter) *Table {
	t := NewTable()
	t.AddHeader(path)
	t.AddHeader("")
	t.AddHeader(columnTitles...)
	for _, r := range rows {
		existing, desired := hl.Pair(r.Existing, r.Desired)
		t.AddRow(r.Field, existing, desired)
	}
	return t
}
