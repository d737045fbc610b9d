package serviceorder

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spreadsheet builds a semicolon separated service order under the human
// headers, cells are keyed by canonical column key
func spreadsheet(rows ...map[string]string) []byte {
	labels := make([]string, 0, len(Columns))
	for _, column := range Columns {
		labels = append(labels, column.Label)
	}

	lines := []string{strings.Join(labels, ";")}
	for _, row := range rows {
		cells := make([]string, 0, len(Columns))
		for _, column := range Columns {
			cells = append(cells, row[column.Key])
		}
		lines = append(lines, strings.Join(cells, ";"))
	}

	return []byte(strings.Join(lines, "\n") + "\n")
}

func TestNormalizeSpreadsheet(t *testing.T) {
	table, err := ParseServiceOrder(spreadsheet(map[string]string{
		"service":                     "sv 10a",
		"display_name":                " Centro x Bairro ",
		"consortium":                  "Internorte",
		"extension_outbound":          "10.000,00",
		"extension_return":            "8500",
		"weekday_start":               "1899-12-30 05:30:00",
		"weekday_end":                 "25:10",
		"weekday_departures_outbound": "2",
		"weekday_departures_return":   "3",
		"weekday_trips":               "5",
		"weekday_distance_km":         "4.550",
		"saturday_trips":              "—",
		"saturday_distance_km":        "123.456",
		"sunday_distance_km":          "72,5",
		"holiday_departures_outbound": "abc",
	}))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Equal(t, "SV10", row.ServiceCode)
	assert.Equal(t, "Centro x Bairro", row.DisplayName)
	assert.Equal(t, "Internorte", row.Consortium)
	assert.Equal(t, 10000.0, row.ExtensionOutbound)
	assert.Equal(t, 8500.0, row.ExtensionReturn)
	assert.Equal(t, 5*time.Hour+30*time.Minute, row.Weekday.Start)
	assert.Equal(t, 25*time.Hour+10*time.Minute, row.Weekday.End)
	assert.Equal(t, 2.0, row.Weekday.DeparturesOutbound)
	assert.Equal(t, 3.0, row.Weekday.DeparturesReturn)
	assert.Equal(t, 5.0, row.Weekday.Trips)
	assert.InDelta(t, 45.5, row.Weekday.DistanceKm, 1e-9)
	assert.Equal(t, 0.0, row.Saturday.Trips)
	assert.InDelta(t, 1234.56, row.Saturday.DistanceKm, 1e-9)
	assert.InDelta(t, 0.725, row.Sunday.DistanceKm, 1e-9)
	assert.Equal(t, 0.0, row.Holiday.DeparturesOutbound)
	assert.Equal(t, time.Duration(0), row.Sunday.Start)

	assert.True(t, table.ColumnOrderMatches)
	assert.Empty(t, table.Ignored)
}

func TestNormalizeSkipsBlankRows(t *testing.T) {
	table, err := ParseServiceOrder(spreadsheet(
		map[string]string{"service": "010"},
		map[string]string{},
		map[string]string{"service": "011"},
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"010", "011"}, table.ServiceCodes())
}

func TestNormalizeMissingColumns(t *testing.T) {
	data := "Serviço,Vista,Consórcio\n010,Centro,Internorte\n"

	table, err := ParseServiceOrder([]byte(data))
	assert.Nil(t, table)

	var schemaError *SchemaError
	require.True(t, errors.As(err, &schemaError))
	assert.Contains(t, schemaError.Missing, "extension_outbound")
	assert.Contains(t, schemaError.Missing, "holiday_distance_km")
	assert.NotContains(t, schemaError.Missing, "service")
}

func TestNormalizeColumnOrderAdvisory(t *testing.T) {
	data := spreadsheet(map[string]string{"service": "010"})
	lines := strings.Split(string(data), "\n")

	for i, line := range lines[:2] {
		cells := strings.Split(line, ";")
		cells[0], cells[1] = cells[1], cells[0]
		lines[i] = strings.Join(cells, ";") + ";Observações"
	}

	table, err := ParseServiceOrder([]byte(strings.Join(lines, "\n")))
	require.NoError(t, err)

	assert.False(t, table.ColumnOrderMatches)
	assert.Equal(t, []string{"Observações"}, table.Ignored)
	assert.Equal(t, "010", table.Rows[0].ServiceCode)
}

func TestHeaderAliases(t *testing.T) {
	testCases := []struct {
		header           string
		key              string
		spreadsheetUnits bool
	}{
		{"Serviço", "service", true},
		{"SERVICO", "service", true},
		{"  Consórcio ", "consortium", true},
		{"Extensão\nde Ida", "extension_outbound", true},
		{"Partidas Ida - Dia Útil", "weekday_departures_outbound", true},
		{"Partidas Volta (Sáb)", "saturday_departures_return", true},
		{"Quilometragem Ponto Facultativo", "holiday_distance_km", true},
		{"KM Domingo", "sunday_distance_km", true},
		{"Horário Início Dia Útil", "weekday_start", true},
		{"weekday_distance_km", "weekday_distance_km", false},
		{"service", "service", false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.header, func(t *testing.T) {
			alias, exists := lookupColumn(testCase.header)
			require.True(t, exists)

			assert.Equal(t, testCase.key, alias.column.Key)
			assert.Equal(t, testCase.spreadsheetUnits, alias.spreadsheetUnits)
		})
	}

	_, exists := lookupColumn("Observações")
	assert.False(t, exists)
}

func TestWriteCSVIsIdempotent(t *testing.T) {
	original, err := ParseServiceOrder(spreadsheet(
		map[string]string{
			"service":                     "SV10",
			"display_name":                "Centro, via Túnel",
			"consortium":                  "Internorte",
			"extension_outbound":          "10.250,00",
			"extension_return":            "9.800,00",
			"weekday_start":               "05:00",
			"weekday_end":                 "23:30:15",
			"weekday_departures_outbound": "12",
			"weekday_departures_return":   "11",
			"weekday_trips":               "23",
			"weekday_distance_km":         "23.081",
			"sunday_distance_km":          "7.250,00",
		},
		map[string]string{"service": "5", "consortium": "Santa Cruz"},
	))
	require.NoError(t, err)

	output := new(bytes.Buffer)
	require.NoError(t, original.WriteCSV(output))

	assert.True(t, strings.HasPrefix(output.String(), "service,display_name,consortium,extension_outbound"))

	reparsed, err := ParseServiceOrder(output.Bytes())
	require.NoError(t, err)
	assert.Equal(t, original.Rows, reparsed.Rows)

	again := new(bytes.Buffer)
	require.NoError(t, reparsed.WriteCSV(again))
	assert.Equal(t, output.String(), again.String())
}

func TestParseCSV(t *testing.T) {
	t.Run("sniffs semicolons", func(t *testing.T) {
		raw, err := ParseCSV([]byte("a;b;c\n1,5;2;3\n"))
		require.NoError(t, err)

		assert.Equal(t, ';', raw.Delimiter)
		assert.Equal(t, []string{"a", "b", "c"}, raw.Header)
		assert.Equal(t, [][]string{{"1,5", "2", "3"}}, raw.Rows)
	})

	t.Run("strips byte order mark", func(t *testing.T) {
		raw, err := ParseCSV([]byte("\xEF\xBB\xBFa,b\n1,2\n"))
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b"}, raw.Header)
	})

	for name, data := range map[string]string{
		"empty":         "",
		"whitespace":    " \n\n",
		"not utf8 text": "a,b\n\xff\xfe,1\n",
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := ParseCSV([]byte(data))
			assert.Nil(t, raw)

			var parseError *ParseError
			assert.True(t, errors.As(err, &parseError))
		})
	}
}
