package column

import (
	"math"
	"strconv"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

var epoch = time.Unix(0, 0).UTC()

// DateTime accepts RFC3339 strings, "YYYY-MM-DD hh:mm:ss" strings read as UTC,
// and unix seconds given as a number or a numeric string. Values are kept in UTC.
func DateTime() *scalar[time.Time] {
	return &scalar[time.Time]{name: "DateTime", def: epoch, parse: parseDateTime}
}

// Date accepts "YYYY-MM-DD" strings and day numbers since 1970-01-01.
func Date() *scalar[time.Time] {
	return &scalar[time.Time]{name: "Date", def: epoch, parse: parseDate}
}

func parseDateTime(raw []byte) (time.Time, error) {
	s, err := numberText(raw)
	if err != nil {
		return time.Time{}, err
	}
	if raw[0] != '"' || isNumeric(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, err
		}
		if err := checkFinite(f); err != nil {
			return time.Time{}, err
		}
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}
	if t, err := parseRFC3339(s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(dateTimeLayout, s, time.UTC)
}

func parseDate(raw []byte) (time.Time, error) {
	s, err := numberText(raw)
	if err != nil {
		return time.Time{}, err
	}
	if raw[0] != '"' || isNumeric(s) {
		days, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return time.Time{}, err
		}
		return epoch.AddDate(0, 0, int(days)), nil
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && c != '.' && !(i == 0 && c == '-') {
			return false
		}
	}
	return true
}
