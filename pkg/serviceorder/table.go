package serviceorder

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// DaySchedule is the planned operation of a service on one day type
type DaySchedule struct {
	DeparturesOutbound float64
	DeparturesReturn   float64
	Trips              float64
	DistanceKm         float64

	// Offsets from midnight, unset for holidays
	Start time.Duration
	End   time.Duration
}

// ScheduleRow is one service of a normalised service order.
// Extensions are in metres and distances in kilometres.
type ScheduleRow struct {
	ServiceCode       string
	DisplayName       string
	Consortium        string
	ExtensionOutbound float64
	ExtensionReturn   float64

	Weekday  DaySchedule
	Saturday DaySchedule
	Sunday   DaySchedule
	Holiday  DaySchedule
}

func (r *ScheduleRow) Day(dayType DayType) *DaySchedule {
	switch dayType {
	case DayTypeSaturday:
		return &r.Saturday
	case DayTypeSunday:
		return &r.Sunday
	case DayTypeHoliday:
		return &r.Holiday
	default:
		return &r.Weekday
	}
}

// RawTable is a header and its rows before any normalisation
type RawTable struct {
	Header    []string
	Rows      [][]string
	Delimiter rune
}

// Table is a normalised service order
type Table struct {
	Rows []ScheduleRow

	// ColumnOrderMatches is false when the input columns were not in canonical order
	ColumnOrderMatches bool

	// Ignored lists input headers that did not map to any column
	Ignored []string
}

// ParseCSV reads delimited text, guessing the delimiter from the header line
func ParseCSV(data []byte) (*RawTable, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: gocsv.ErrEmptyCSVFile}
	}
	if !utf8.Valid(data) {
		return nil, &ParseError{Err: errors.New("input is not utf-8 text")}
	}

	delimiter := sniffDelimiter(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	table := &RawTable{Header: header, Delimiter: delimiter}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		table.Rows = append(table.Rows, record)
	}

	log.Debug().
		Str("delimiter", string(delimiter)).
		Int("columns", len(header)).
		Int("rows", len(table.Rows)).
		Msg("Parsed service order")

	return table, nil
}

// The delimiter is whichever candidate splits the header line into the most fields
func sniffDelimiter(data []byte) rune {
	line := data
	if newline := bytes.IndexByte(data, '\n'); newline >= 0 {
		line = data[:newline]
	}

	best, bestCount := ',', 0
	for _, delimiter := range candidateDelimiters {
		count := bytes.Count(line, []byte(string(delimiter)))
		if count > bestCount {
			best, bestCount = delimiter, count
		}
	}

	return best
}

// Normalize maps the raw headers onto the canonical columns and coerces every cell
func Normalize(raw *RawTable) (*Table, error) {
	mapped := make([]*columnAlias, len(raw.Header))
	seen := map[string]bool{}
	order := []int{}
	table := &Table{}

	for i, header := range raw.Header {
		alias, exists := lookupColumn(header)
		if !exists {
			if strings.TrimSpace(header) != "" {
				table.Ignored = append(table.Ignored, header)
			}
			continue
		}
		if seen[alias.column.Key] {
			log.Debug().Str("header", header).Str("column", alias.column.Key).Msg("Duplicate column ignored")
			continue
		}

		seen[alias.column.Key] = true
		mapped[i] = &alias
		order = append(order, columnPosition(alias.column))
	}

	var missing []string
	for _, key := range RequiredColumns() {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	table.ColumnOrderMatches = true
	for i := 1; i < len(order); i++ {
		if order[i] < order[i-1] {
			table.ColumnOrderMatches = false
			break
		}
	}

	for _, record := range raw.Rows {
		if isBlank(record) {
			continue
		}

		row := ScheduleRow{}
		for i, value := range record {
			if i >= len(mapped) || mapped[i] == nil {
				continue
			}

			assign(&row, mapped[i], value)
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func assign(row *ScheduleRow, alias *columnAlias, value string) {
	field := alias.column.field(row)

	switch alias.column.kind {
	case columnKindServiceCode:
		*field.(*string) = FormatServiceCode(value)
	case columnKindText:
		*field.(*string) = strings.TrimSpace(value)
	case columnKindExtension:
		*field.(*float64) = parseExtension(value)
	case columnKindCount:
		*field.(*float64) = ToNumber(value)
	case columnKindDistance:
		if alias.spreadsheetUnits {
			*field.(*float64) = parseHundredths(value)
		} else {
			*field.(*float64) = ToNumber(value)
		}
	case columnKindClock:
		*field.(*time.Duration) = ParseClock(value)
	}
}

func render(row *ScheduleRow, column *Column) string {
	switch value := column.field(row).(type) {
	case *string:
		return *value
	case *float64:
		return FormatNumber(*value)
	case *time.Duration:
		return formatClock(*value)
	}

	return ""
}

func columnPosition(column *Column) int {
	for i, candidate := range Columns {
		if candidate == column {
			return i
		}
	}

	return -1
}

func isBlank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}

	return true
}

// ParseServiceOrder parses and normalises a service order in one step
func ParseServiceOrder(data []byte) (*Table, error) {
	raw, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}

	return Normalize(raw)
}

// WriteCSV writes the table under the canonical keys in canonical units.
// Normalising the output again yields the same rows.
func (t *Table) WriteCSV(w io.Writer) error {
	csvWriter := gocsv.DefaultCSVWriter(w)

	if err := csvWriter.Write(RequiredColumns()); err != nil {
		return err
	}

	for i := range t.Rows {
		record := make([]string, 0, len(Columns))
		for _, column := range Columns {
			record = append(record, render(&t.Rows[i], column))
		}

		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()

	return csvWriter.Error()
}

// ServiceCodes returns every distinct non empty service code in row order
func (t *Table) ServiceCodes() []string {
	seen := map[string]bool{}
	codes := []string{}

	for _, row := range t.Rows {
		if row.ServiceCode == "" || seen[row.ServiceCode] {
			continue
		}

		seen[row.ServiceCode] = true
		codes = append(codes, row.ServiceCode)
	}

	return codes
}
