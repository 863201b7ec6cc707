package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRow(t *testing.T) {
	row, err := ParseRow(Record{Index: 4, Cells: []string{
		" Launch day ", "https://example.com", "https://example.com/1.png", "", "https://example.com/3.png", "",
		"15-03-2024", "09", "Draft",
	}})
	require.NoError(t, err)

	assert.Equal(t, 4, row.Index)
	assert.Equal(t, "Launch day", row.Content.Text)
	assert.Equal(t, "https://example.com", row.Content.Link)
	assert.Equal(t, []string{"https://example.com/1.png", "https://example.com/3.png"}, row.Content.ImageURLs)
	assert.Equal(t, Date{2024, time.March, 15}, row.Date)
	assert.Equal(t, 9, row.Hour)
	assert.Equal(t, StatusDraft, row.Status)
}

func TestParseRow_Variants(t *testing.T) {
	tests := []struct {
		name   string
		cells  []string
		hour   int
		status Status
	}{
		{"time formatted hour", []string{"t", "", "", "", "", "", "01-01-2024", "17:00", "published"}, 17, StatusPublished},
		{"empty status is draft", []string{"t", "", "", "", "", "", "01-01-2024", "0", ""}, 0, StatusDraft},
		{"short record", []string{"t", "", "", "", "", "", "01-01-2024", "23"}, 23, StatusDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := ParseRow(Record{Index: 2, Cells: tt.cells})
			require.NoError(t, err)
			assert.Equal(t, tt.hour, row.Hour)
			assert.Equal(t, tt.status, row.Status)
		})
	}
}

func TestParseRow_Errors(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		field string
	}{
		{"bad date", []string{"t", "", "", "", "", "", "2024-03-15", "9", "draft"}, "date"},
		{"month first date", []string{"t", "", "", "", "", "", "03-15-2024", "9", "draft"}, "date"},
		{"hour out of range", []string{"t", "", "", "", "", "", "15-03-2024", "24", "draft"}, "hour"},
		{"hour not a number", []string{"t", "", "", "", "", "", "15-03-2024", "noon", "draft"}, "hour"},
		{"hour with minutes", []string{"t", "", "", "", "", "", "15-03-2024", "09:30", "draft"}, "hour"},
		{"unknown status", []string{"t", "", "", "", "", "", "15-03-2024", "9", "scheduled"}, "status"},
		{"no content", []string{"", "", "", "", "", "", "15-03-2024", "9", "draft"}, "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRow(Record{Index: 7, Cells: tt.cells})
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.field, parseErr.Field)
			assert.Equal(t, 7, parseErr.Index)
		})
	}
}

func TestParseRow_Blank(t *testing.T) {
	_, err := ParseRow(Record{Index: 9, Cells: []string{"", " ", ""}})
	assert.ErrorIs(t, err, ErrBlankRow)
}
