package ingest

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"
)

// headerNo matches the sequence-number column that opens both the
// subject-template header and the header line ending a metadata preamble.
var headerNo = regexp.MustCompile(`^(?i)no\.?$`)

// Minimum data columns per layout. Shorter rows carry no usable fact and are
// skipped, not errored.
const (
	minColsSingleSubject   = 3
	minColsMultiSubject    = 4
	minColsSubjectTemplate = 6
)

// Parser streams Row values out of a delimited UTF-8 file. It classifies the
// layout once from the header and maps columns positionally from then on; it
// is single-pass and not restartable.
type Parser struct {
	reader *csv.Reader
	format SourceFormat
	rowNum int
}

// NewParser reads the header portion of the file and classifies its layout.
// Files that cannot be classified fail with *FormatError; nothing is
// processed for such files.
func NewParser(r io.Reader) (*Parser, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	format, err := classify(header)
	if err != nil {
		return nil, err
	}

	return &Parser{reader: reader, format: format}, nil
}

// Format returns the detected source layout.
func (p *Parser) Format() SourceFormat {
	return p.format
}

// RowNumber returns the 1-based ordinal of the most recently read data row,
// counting rows the parser skipped.
func (p *Parser) RowNumber() int {
	return p.rowNum
}

// Next returns the next row carrying a grade fact, io.EOF when the source is
// exhausted, or the underlying read error. Blank rows, rows shorter than the
// layout minimum, and rows whose grade components are all empty are skipped
// silently.
func (p *Parser) Next() (*Row, error) {
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			p.rowNum++
			return nil, err
		}
		p.rowNum++

		cells := trimCells(record)
		if allEmpty(cells) {
			continue
		}

		row := p.mapRow(cells)
		if row == nil {
			continue
		}
		return row, nil
	}
}

func (p *Parser) mapRow(cells []string) *Row {
	row := &Row{Number: p.rowNum, Format: p.format}

	switch p.format {
	case FormatSubjectTemplate:
		// Columns: seq, student id, name, grade-level/section, midterm,
		// final term, final grade, remarks. The section label is
		// informational and not carried.
		if len(cells) < minColsSubjectTemplate {
			return nil
		}
		row.StudentKey = cells[1]
		row.StudentName = cells[2]
		row.Values = map[string]string{
			ComponentMidterm:    cellAt(cells, 4),
			ComponentFinalTerm:  cellAt(cells, 5),
			ComponentFinalGrade: cellAt(cells, 6),
		}
		row.Notes = cellAt(cells, 7)
	case FormatMultiSubject:
		if len(cells) < minColsMultiSubject {
			return nil
		}
		row.StudentKey = cells[0]
		row.StudentName = cells[1]
		row.SubjectCode = cells[2]
		row.Values = map[string]string{ComponentGrade: cells[3]}
		row.PeriodCode = cellAt(cells, 4)
		row.Notes = cellAt(cells, 5)
	default:
		if len(cells) < minColsSingleSubject {
			return nil
		}
		row.StudentKey = cells[0]
		row.StudentName = cells[1]
		row.Values = map[string]string{ComponentGrade: cells[2]}
		row.Notes = cellAt(cells, 3)
	}

	// Rows carrying a grade but no student id are kept: the upsert engine
	// rejects them so the failure stays visible in the report.
	if !row.HasValue() {
		return nil
	}
	return row
}

// readHeader locates the header line. Files whose first non-empty cell
// mentions "teacher" or "subject" carry a metadata preamble; the header is
// then the first subsequent line opening with a sequence-number cell.
func readHeader(reader *csv.Reader) ([]string, error) {
	first, err := firstNonEmpty(reader)
	if err != nil {
		return nil, err
	}

	lead := strings.ToLower(first[0])
	if !strings.Contains(lead, "teacher") && !strings.Contains(lead, "subject") {
		return first, nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, &FormatError{Reason: "no header row found after metadata preamble"}
		}
		if err != nil {
			return nil, &FormatError{Reason: err.Error()}
		}
		cells := trimCells(record)
		if len(cells) > 0 && headerNo.MatchString(cells[0]) {
			return cells, nil
		}
	}
}

func firstNonEmpty(reader *csv.Reader) ([]string, error) {
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, &FormatError{Reason: "file is empty"}
		}
		if err != nil {
			return nil, &FormatError{Reason: err.Error()}
		}
		cells := trimCells(record)
		if !allEmpty(cells) {
			return cells, nil
		}
	}
}

func classify(header []string) (SourceFormat, error) {
	if headerNo.MatchString(header[0]) {
		return FormatSubjectTemplate, nil
	}
	if len(header) >= 5 {
		return FormatMultiSubject, nil
	}
	if len(header) >= 3 {
		return FormatSingleSubject, nil
	}
	return "", &FormatError{Reason: "header has too few columns"}
}

func trimCells(record []string) []string {
	cells := make([]string, len(record))
	for i, cell := range record {
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

func allEmpty(cells []string) bool {
	for _, cell := range cells {
		if cell != "" {
			return false
		}
	}
	return true
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
