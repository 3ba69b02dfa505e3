package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeFile(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		wantOK        bool
		wantDate      string
		wantEncrypted bool
	}{
		{
			name:          "encrypted with date",
			path:          "/inbox/2024/report_20240315.csv.gpg",
			wantOK:        true,
			wantDate:      "20240315",
			wantEncrypted: true,
		},
		{
			name:          "pgp extension",
			path:          "/inbox/data_20240315.xml.pgp",
			wantOK:        true,
			wantDate:      "20240315",
			wantEncrypted: true,
		},
		{
			name:          "armoured asc",
			path:          "/inbox/feed_20240315.ASC",
			wantOK:        true,
			wantDate:      "20240315",
			wantEncrypted: true,
		},
		{
			name:          "plain file with date",
			path:          "/inbox/summary_20240315.txt",
			wantOK:        true,
			wantDate:      "20240315",
			wantEncrypted: false,
		},
		{
			name:   "no date token",
			path:   "/inbox/readme.txt",
			wantOK: false,
		},
		{
			name:   "eight digits but not a date",
			path:   "/inbox/report_99999999.csv",
			wantOK: false,
		},
		{
			name:   "seven digit run",
			path:   "/inbox/report_2024031.csv",
			wantOK: false,
		},
		{
			name:          "date in directory does not count",
			path:          "/inbox/20240315/notes.txt",
			wantOK:        false,
			wantEncrypted: false,
		},
		{
			name:          "first of two tokens wins",
			path:          "/inbox/a_20240315_20240316.csv",
			wantOK:        true,
			wantDate:      "20240315",
			wantEncrypted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, ok := DescribeFile(tt.path)
			if !tt.wantOK {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantDate, desc.Date.Format(CompactDate))
			assert.Equal(t, tt.wantEncrypted, desc.IsEncrypted)
			assert.Equal(t, tt.path, desc.FilePath)
		})
	}
}

func TestFileDescriptor_DecryptedName(t *testing.T) {
	desc, ok := DescribeFile("/inbox/report_20240315.csv.gpg")
	require.True(t, ok)
	assert.Equal(t, "report_20240315.csv", desc.DecryptedName())

	plain, ok := DescribeFile("/inbox/report_20240315.csv")
	require.True(t, ok)
	assert.Equal(t, "report_20240315.csv", plain.DecryptedName())
}
