package academicyear

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestCurrent(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before june", date(2024, time.May, 15), "2023-2024"},
		{"first of june", date(2024, time.June, 1), "2024-2025"},
		{"january", date(2025, time.January, 3), "2024-2025"},
		{"december", date(2024, time.December, 31), "2024-2025"},
		{"last day of may", date(2025, time.May, 31), "2024-2025"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Current(tc.now))
		})
	}
}

func TestOptions(t *testing.T) {
	got := Options(date(2024, time.July, 1), 3)
	assert.Equal(t, []string{"2024-2025", "2023-2024", "2022-2023"}, got)
}

func TestOptionsDefaultCount(t *testing.T) {
	got := Options(date(2024, time.March, 1), 0)
	require.Len(t, got, DefaultOptionCount)
	assert.Equal(t, "2023-2024", got[0])
	assert.Equal(t, "2019-2020", got[4])
}

func TestParse(t *testing.T) {
	y, err := Parse("2023-2024")
	require.NoError(t, err)
	assert.Equal(t, 2023, y.Start)
	assert.Equal(t, 2024, y.End())
	assert.Equal(t, "2023-2024", y.String())

	for _, bad := range []string{"", "2023", "2023-2025", "2024-2023", "23-24", "abcd-efgh", "2023/2024", "2023-2024-2025"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
		assert.False(t, Valid(bad), bad)
	}
}

func TestYearContains(t *testing.T) {
	y := Year{Start: 2024}
	assert.True(t, y.Contains(date(2024, time.June, 1)))
	assert.True(t, y.Contains(date(2025, time.May, 31)))
	assert.False(t, y.Contains(date(2024, time.May, 31)))
}
