package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func TestExpandDateVars(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"plain date", "/drops/{date}/in", "/drops/20240305/in"},
		{"year month path", "/out/{Date:YYYY/MM}", "/out/2024/03"},
		{"two digit year", "report_{Date:YY-MM-DD}.csv", "report_24-03-05.csv"},
		{"unpadded tokens", "{Date:M/D}", "3/5"},
		{"time tokens", "{Date:HH:mm:ss}", "14:07:09"},
		{"unpadded time", "{Date:H.m.s}", "14.7.9"},
		{"literal passthrough", "{Date:YYYY-MM-DD_x}", "2024-03-05_x"},
		{"no variables", "/static/path", "/static/path"},
		{"both forms", "{date}/{Date:YYYY}", "20240305/2024"},
		{"empty format", "x{Date:}y", "xy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandDateVars(tt.template, testDate))
		})
	}
}

func TestExpandDateVars_UnknownLetterPassesThrough(t *testing.T) {
	// Q is not a token; it survives untouched
	assert.Equal(t, "2024Q", ExpandDateVars("{Date:YYYYQ}", testDate))
}

func TestExpandFileVars(t *testing.T) {
	tests := []struct {
		name     string
		template string
		filename string
		expected string
	}{
		{"base and ext", "{baseName}_copy.{ext}", "report.csv", "report_copy.csv"},
		{"no extension", "{baseName}.{ext}", "README", "README."},
		{"multiple dots", "{baseName}|{ext}", "a.b.csv", "a.b|csv"},
		{"no variables", "fixed.txt", "report.csv", "fixed.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandFileVars(tt.template, tt.filename))
		})
	}
}

func TestNormaliseDate(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input any
	}{
		{"iso string", "2024-03-15"},
		{"slash string", "2024/03/15"},
		{"day first dash", "15-03-2024"},
		{"day first slash", "15/03/2024"},
		{"compact", "20240315"},
		{"time.Time", want},
		{"epoch seconds", int64(1710460800)},
		{"epoch seconds int", 1710460800},
		{"epoch millis", int64(1710460800000)},
		{"epoch float", float64(1710460800)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormaliseDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, want.Format(CompactDate), got.Format(CompactDate))
		})
	}
}

func TestNormaliseDate_Rejections(t *testing.T) {
	_, err := NormaliseDate("yesterday")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NormaliseDate([]byte("20240315"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
