package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

// Date variable expansion for source/destination templates.
//
// Two variable forms are supported:
//
//	{date}        expands to the 8-digit YYYYMMDD form of the target date
//	{Date:<fmt>}  expands <fmt> using the token grammar below
//
// Format tokens: YYYY YY MM M DD D HH H mm m ss s. Any other rune in the
// format passes through unchanged. A bad template degrades to a visible
// wrong path rather than failing a scheduled run.

// datePattern matches the {Date:<fmt>} variable form.
var datePattern = regexp.MustCompile(`\{Date:([^}]*)\}`)

// CompactDate is the 8-digit YYYYMMDD layout used throughout the pipeline.
const CompactDate = "20060102"

// ExpandDateVars substitutes all date variables in s against date.
func ExpandDateVars(s string, date time.Time) string {
	s = strings.ReplaceAll(s, "{date}", date.Format(CompactDate))
	return datePattern.ReplaceAllStringFunc(s, func(match string) string {
		format := datePattern.FindStringSubmatch(match)[1]
		return expandTokens(format, date)
	})
}

// ExpandFileVars substitutes the per-candidate {baseName} and {ext}
// variables derived from the candidate's own filename. ext keeps its
// leading dot stripped, matching the registry convention.
func ExpandFileVars(s, filename string) string {
	base := filename
	ext := ""
	if i := strings.LastIndex(filename, "."); i >= 0 {
		base = filename[:i]
		ext = filename[i+1:]
	}
	s = strings.ReplaceAll(s, "{baseName}", base)
	return strings.ReplaceAll(s, "{ext}", ext)
}

// dateTokens in longest-match-first order.
var dateTokens = []string{"YYYY", "YY", "MM", "DD", "HH", "mm", "ss", "M", "D", "H", "m", "s"}

// expandTokens renders a {Date:<fmt>} format string.
// Unknown letters are copied through untouched with a warning.
func expandTokens(format string, date time.Time) string {
	var b strings.Builder
	i := 0
	for i < len(format) {
		matched := false
		for _, tok := range dateTokens {
			if strings.HasPrefix(format[i:], tok) {
				b.WriteString(renderToken(tok, date))
				i += len(tok)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		c := format[i]
		if isLetter(c) {
			logger.Warn("unknown date format token %q in %q, leaving untouched", string(c), format)
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// renderToken renders one recognised format token.
func renderToken(tok string, date time.Time) string {
	switch tok {
	case "YYYY":
		return fmt.Sprintf("%04d", date.Year())
	case "YY":
		return fmt.Sprintf("%02d", date.Year()%100)
	case "MM":
		return fmt.Sprintf("%02d", int(date.Month()))
	case "M":
		return fmt.Sprintf("%d", int(date.Month()))
	case "DD":
		return fmt.Sprintf("%02d", date.Day())
	case "D":
		return fmt.Sprintf("%d", date.Day())
	case "HH":
		return fmt.Sprintf("%02d", date.Hour())
	case "H":
		return fmt.Sprintf("%d", date.Hour())
	case "mm":
		return fmt.Sprintf("%02d", date.Minute())
	case "m":
		return fmt.Sprintf("%d", date.Minute())
	case "ss":
		return fmt.Sprintf("%02d", date.Second())
	case "s":
		return fmt.Sprintf("%d", date.Second())
	}
	return tok
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// dateLayouts are the accepted string shapes for NormaliseDate, tried in
// order.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	CompactDate,
}

// NormaliseDate converts the accepted date representations into a
// time.Time. Strings may be any of the dateLayouts shapes; integers and
// floats are epoch seconds (or milliseconds when plainly too large).
func NormaliseDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: unrecognised date %q", ErrInvalidInput, v)
	case int:
		return epochToTime(int64(v)), nil
	case int64:
		return epochToTime(v), nil
	case float64:
		return epochToTime(int64(v)), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported date type %T", ErrInvalidInput, value)
	}
}

// epochToTime interprets an epoch value as seconds, or milliseconds when
// the magnitude makes seconds implausible.
func epochToTime(epoch int64) time.Time {
	const millisThreshold = int64(1) << 40 // ~year 36812 in seconds
	if epoch > millisThreshold {
		return time.UnixMilli(epoch).UTC()
	}
	return time.Unix(epoch, 0).UTC()
}
