package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddCalendarMonth(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "mid month",
			in:   time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC),
			want: time.Date(2026, time.April, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "jan 31 clamps to feb 28",
			in:   time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "jan 31 leap year clamps to feb 29",
			in:   time.Date(2028, time.January, 31, 0, 0, 0, 0, time.UTC),
			want: time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "may 31 clamps to jun 30",
			in:   time.Date(2026, time.May, 31, 23, 59, 59, 0, time.UTC),
			want: time.Date(2026, time.June, 30, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "december wraps year",
			in:   time.Date(2026, time.December, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2027, time.January, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddCalendarMonth(tt.in))
		})
	}
}
