package ingest

// SourceFormat identifies which of the supported spreadsheet layouts a file
// was classified as. Classification happens once per file, never per row.
type SourceFormat string

const (
	// FormatSingleSubject is the minimal layout: student id, student name,
	// grade, notes. The subject comes from the upload context.
	FormatSingleSubject SourceFormat = "SINGLE_SUBJECT"
	// FormatMultiSubject carries a subject code and grading period code per
	// row: student id, student name, subject code, grade, period code, notes.
	FormatMultiSubject SourceFormat = "MULTI_SUBJECT"
	// FormatSubjectTemplate is the official class-record template with a
	// metadata preamble and midterm/final-term/final-grade columns.
	FormatSubjectTemplate SourceFormat = "SUBJECT_TEMPLATE"
)

// Component names used as keys in Row.Values.
const (
	ComponentGrade      = "grade"
	ComponentMidterm    = "midterm"
	ComponentFinalTerm  = "final_term"
	ComponentFinalGrade = "final_grade"
)

// Row is the canonical in-memory representation of one grade fact after
// parsing, independent of the source layout.
type Row struct {
	// Number is the 1-based ordinal of the row among the file's data rows,
	// counting skipped rows, so reported outcomes line up with the file the
	// teacher uploaded.
	Number      int
	StudentKey  string
	StudentName string
	// SubjectCode is empty in the single-subject layout; the upload context
	// supplies the subject then.
	SubjectCode string
	PeriodCode  string
	Values      map[string]string
	Notes       string
	Format      SourceFormat
}

// HasValue reports whether any grade component carries a non-empty value.
// Rows without one carry no fact and are dropped silently by the parser.
func (r *Row) HasValue() bool {
	for _, v := range r.Values {
		if v != "" {
			return true
		}
	}
	return false
}
