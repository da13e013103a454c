package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var moneyCleaner = strings.NewReplacer(",", "", "$", "", " ", "", "\u00a0", "")

// Decimal parses a money cell. Currency symbols and thousands separators are
// ignored and "(12.50)" is read as negative. Anything unparseable is zero.
func Decimal(s string) decimal.Decimal {
	s = moneyCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		d = d.Neg()
	}
	return d.Round(2)
}

var (
	maxCount = decimal.NewFromInt(math.MaxInt32)
	minCount = decimal.NewFromInt(math.MinInt32)
)

// Integer parses a count cell, truncating any fraction. Unparseable or out of
// the 32-bit range is zero.
func Integer(s string) int {
	d := Decimal(s).Truncate(0)
	if d.GreaterThan(maxCount) || d.LessThan(minCount) {
		return 0
	}
	return int(d.IntPart())
}

// excel serials past 9999-12-31 are invalid
const maxExcelSerial = 2958465

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Date parses an Excel serial or a text date. Returns nil when blank or unparseable.
func Date(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f <= 0 || f > maxExcelSerial {
			return nil
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return nil
		}
		t = t.UTC()
		return &t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// stringify turns a decoded JSON value into the cell text the coercers expect.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
