package serviceorder

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	serviceLetters = regexp.MustCompile(`[A-Za-z]+`)
	serviceDigits  = regexp.MustCompile(`[0-9]+`)
)

// ToNumber converts a spreadsheet cell to a float. Dots are thousands
// separators and a comma is the decimal mark. Anything that does not parse,
// including the em dash placeholder, is 0.
func ToNumber(value string) float64 {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, ".", "")
	value = strings.ReplaceAll(value, ",", ".")

	number, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return 0
	}

	return number
}

// FormatNumber renders a float the way ToNumber reads it back
func FormatNumber(value float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(value, 'f', -1, 64), ".", ",")
}

// Spreadsheets store extensions in metres with a ",00" suffix
func parseExtension(value string) float64 {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(value, ",00")

	return ToNumber(value)
}

// Distances in spreadsheets are hundredths of a kilometre
func parseHundredths(value string) float64 {
	return ToNumber(value) / 100
}

// ParseClock reads a start/end of service cell into a duration since midnight.
// Date prefixes separated by a space are discarded. Hours may exceed 23 for
// services running past midnight. Unparseable cells are 0.
func ParseClock(value string) time.Duration {
	value = strings.TrimSpace(value)
	if space := strings.LastIndex(value, " "); space >= 0 {
		value = value[space+1:]
	}

	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var duration time.Duration

	for i, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil || number < 0 {
			return 0
		}
		if i > 0 && number >= 60 {
			return 0
		}

		duration += time.Duration(number) * units[i]
	}

	return duration
}

// FormatServiceCode reduces a service code to its first letter run, upper
// cased, followed by its first digit run. "sv 10" and "SV10A" both become "SV10".
func FormatServiceCode(value string) string {
	return strings.ToUpper(serviceLetters.FindString(value)) + serviceDigits.FindString(value)
}

// PadServiceCode left pads purely numeric codes to three digits, as route short names are
func PadServiceCode(value string) string {
	if value == "" {
		return value
	}

	for _, character := range value {
		if character < '0' || character > '9' {
			return value
		}
	}

	for len(value) < 3 {
		value = "0" + value
	}

	return value
}
