package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var ErrInvalidYearMonth = errors.New("invalid_year_month")

// Local is the association's civil time: Argentina, UTC-3 with no DST.
var Local = time.FixedZone("ART", -3*60*60)

// YearMonth identifies a calendar month. Month is always kept in 1..12.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func New(year, month int) YearMonth {
	return YearMonth{Year: year, Month: month}
}

// FromTime returns the month containing t, in t's own location.
func FromTime(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// FromLocalTime returns the month containing the instant t in Local.
func FromLocalTime(t time.Time) YearMonth {
	return FromTime(t.In(Local))
}

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	ym.Month++
	if ym.Month > 12 {
		ym.Year++
		ym.Month = 1
	}
	return ym
}

// Prev returns the preceding calendar month.
func (ym YearMonth) Prev() YearMonth {
	ym.Month--
	if ym.Month < 1 {
		ym.Year--
		ym.Month = 12
	}
	return ym
}

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

func (ym YearMonth) After(other YearMonth) bool {
	return other.Before(ym)
}

func (ym YearMonth) Valid() bool {
	return ym.Month >= 1 && ym.Month <= 12
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Compact renders the YYYYMM form accepted by Parse.
func (ym YearMonth) Compact() string {
	return fmt.Sprintf("%04d%02d", ym.Year, ym.Month)
}

// Range returns count consecutive months starting at start.
func Range(start YearMonth, count int) []YearMonth {
	if count < 1 {
		return []YearMonth{}
	}
	out := make([]YearMonth, 0, count)
	current := start
	out = append(out, current)
	for i := 1; i < count; i++ {
		current = current.Next()
		out = append(out, current)
	}
	return out
}

// Parse reads a YYYYMM string.
func Parse(value string) (YearMonth, error) {
	if len(value) != 6 {
		return YearMonth{}, ErrInvalidYearMonth
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return YearMonth{}, ErrInvalidYearMonth
		}
	}
	year, _ := strconv.Atoi(value[:4])
	month, _ := strconv.Atoi(value[4:])
	ym := YearMonth{Year: year, Month: month}
	if !ym.Valid() {
		return YearMonth{}, ErrInvalidYearMonth
	}
	return ym, nil
}
