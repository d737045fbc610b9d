package serviceorder

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type DayType string

const (
	DayTypeWeekday  DayType = "weekday"
	DayTypeSaturday DayType = "saturday"
	DayTypeSunday   DayType = "sunday"
	DayTypeHoliday  DayType = "holiday"
)

// DayTypes lists every day type in spreadsheet order
var DayTypes = []DayType{DayTypeWeekday, DayTypeSaturday, DayTypeSunday, DayTypeHoliday}

// ClockDayTypes are the day types that carry start/end of service times
var ClockDayTypes = []DayType{DayTypeWeekday, DayTypeSaturday, DayTypeSunday}

type columnKind int

const (
	columnKindText columnKind = iota
	columnKindServiceCode
	columnKindExtension
	columnKindCount
	columnKindDistance
	columnKindClock
)

// Column is one canonical service order column
type Column struct {
	Key   string
	Label string
	kind  columnKind
	field func(row *ScheduleRow) interface{}
}

var dayLabels = map[DayType]string{
	DayTypeWeekday:  "Dia Útil",
	DayTypeSaturday: "Sábado",
	DayTypeSunday:   "Domingo",
	DayTypeHoliday:  "Ponto Facultativo",
}

// Historical spellings of each day type as they appear in spreadsheet headers (already folded)
var dayAliases = map[DayType][]string{
	DayTypeWeekday:  {"dia util", "dias uteis", "du"},
	DayTypeSaturday: {"sabado", "sab"},
	DayTypeSunday:   {"domingo", "dom"},
	DayTypeHoliday:  {"ponto facultativo", "pf"},
}

type dayColumn struct {
	suffix  string
	label   string
	aliases []string
	kind    columnKind
	clock   bool
	field   func(day *DaySchedule) interface{}
}

var dayColumns = []dayColumn{
	{
		suffix: "start", label: "Horário Inicial", kind: columnKindClock, clock: true,
		aliases: []string{"horario inicial", "horario inicio", "hora inicial", "hora inicio", "inicio operacao"},
		field:   func(day *DaySchedule) interface{} { return &day.Start },
	},
	{
		suffix: "end", label: "Horário Fim", kind: columnKindClock, clock: true,
		aliases: []string{"horario fim", "horario final", "hora fim", "hora final", "fim operacao"},
		field:   func(day *DaySchedule) interface{} { return &day.End },
	},
	{
		suffix: "departures_outbound", label: "Partidas Ida", kind: columnKindCount,
		aliases: []string{"partidas ida", "partidas de ida", "partida ida"},
		field:   func(day *DaySchedule) interface{} { return &day.DeparturesOutbound },
	},
	{
		suffix: "departures_return", label: "Partidas Volta", kind: columnKindCount,
		aliases: []string{"partidas volta", "partidas de volta", "partida volta"},
		field:   func(day *DaySchedule) interface{} { return &day.DeparturesReturn },
	},
	{
		suffix: "trips", label: "Viagens", kind: columnKindCount,
		aliases: []string{"viagens", "viagem", "total viagens"},
		field:   func(day *DaySchedule) interface{} { return &day.Trips },
	},
	{
		suffix: "distance_km", label: "Quilometragem", kind: columnKindDistance,
		aliases: []string{"quilometragem", "km", "quilometragem total"},
		field:   func(day *DaySchedule) interface{} { return &day.DistanceKm },
	},
}

// Columns is the canonical column sequence of a normalised service order
var Columns = buildColumns()

type columnAlias struct {
	column *Column
	// Spreadsheet headers carry the raw spreadsheet units, canonical keys carry canonical units
	spreadsheetUnits bool
}

var columnAliases = buildAliases()

func buildColumns() []*Column {
	columns := []*Column{
		{
			Key: "service", Label: "Serviço", kind: columnKindServiceCode,
			field: func(row *ScheduleRow) interface{} { return &row.ServiceCode },
		},
		{
			Key: "display_name", Label: "Vista", kind: columnKindText,
			field: func(row *ScheduleRow) interface{} { return &row.DisplayName },
		},
		{
			Key: "consortium", Label: "Consórcio", kind: columnKindText,
			field: func(row *ScheduleRow) interface{} { return &row.Consortium },
		},
		{
			Key: "extension_outbound", Label: "Extensão de Ida", kind: columnKindExtension,
			field: func(row *ScheduleRow) interface{} { return &row.ExtensionOutbound },
		},
		{
			Key: "extension_return", Label: "Extensão de Volta", kind: columnKindExtension,
			field: func(row *ScheduleRow) interface{} { return &row.ExtensionReturn },
		},
	}

	for _, dayType := range DayTypes {
		for _, dayColumn := range dayColumns {
			if dayColumn.clock && dayType == DayTypeHoliday {
				continue
			}

			dayType := dayType
			field := dayColumn.field
			columns = append(columns, &Column{
				Key:   string(dayType) + "_" + dayColumn.suffix,
				Label: dayColumn.label + " " + dayLabels[dayType],
				kind:  dayColumn.kind,
				field: func(row *ScheduleRow) interface{} { return field(row.Day(dayType)) },
			})
		}
	}

	return columns
}

func buildAliases() map[string]columnAlias {
	aliases := map[string]columnAlias{}
	byKey := map[string]*Column{}

	for _, column := range Columns {
		byKey[column.Key] = column
		aliases[column.Key] = columnAlias{column: column}
		aliases[NormaliseHeader(column.Label)] = columnAlias{column: column, spreadsheetUnits: true}
	}

	for key, spellings := range map[string][]string{
		"service":            {"servico", "servicos", "linha", "codigo servico", "cod servico"},
		"display_name":       {"vista", "vista servico", "nome", "descricao"},
		"consortium":         {"consorcio", "consorcios", "operadora"},
		"extension_outbound": {"extensao de ida", "extensao ida", "extensao ida m", "ext ida"},
		"extension_return":   {"extensao de volta", "extensao volta", "extensao volta m", "ext volta"},
	} {
		for _, spelling := range spellings {
			aliases[spelling] = columnAlias{column: byKey[key], spreadsheetUnits: true}
		}
	}

	for _, dayType := range DayTypes {
		for _, dayColumn := range dayColumns {
			column, exists := byKey[string(dayType)+"_"+dayColumn.suffix]
			if !exists {
				continue
			}

			for _, prefix := range dayColumn.aliases {
				for _, day := range dayAliases[dayType] {
					aliases[prefix+" "+day] = columnAlias{column: column, spreadsheetUnits: true}
				}
			}
		}
	}

	return aliases
}

var headerSeparators = regexp.MustCompile(`[\s\-–_/().:]+`)

// NormaliseHeader folds case, accents, line breaks and punctuation so that
// historical header spellings collapse onto a single lookup key
func NormaliseHeader(header string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.TrimSpace(header),
	)
	if err != nil {
		folded = header
	}

	folded = headerSeparators.ReplaceAllString(strings.ToLower(folded), " ")

	return strings.TrimSpace(folded)
}

// Canonical keys such as "weekday_distance_km" are matched before folding
func lookupColumn(header string) (columnAlias, bool) {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	if alias, exists := columnAliases[header]; exists && !alias.spreadsheetUnits {
		return alias, true
	}

	alias, exists := columnAliases[NormaliseHeader(header)]
	return alias, exists
}

// RequiredColumns returns the canonical keys every service order must provide
func RequiredColumns() []string {
	keys := make([]string, 0, len(Columns))
	for _, column := range Columns {
		keys = append(keys, column.Key)
	}

	return keys
}

func columnByKey(key string) *Column {
	for _, column := range Columns {
		if column.Key == key {
			return column
		}
	}

	return nil
}

// formatClock renders a duration since midnight as HH:MM:SS, hours may exceed 23
func formatClock(duration time.Duration) string {
	seconds := int(duration / time.Second)

	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
