package inbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimestamp(t *testing.T) {
	colombo := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 3, 10, 14, 0, 0, 0, colombo)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"earlier today", time.Date(2024, 3, 10, 9, 5, 0, 0, colombo), "09:05"},
		{"midnight today", time.Date(2024, 3, 10, 0, 0, 0, 0, colombo), "00:00"},
		{"yesterday", time.Date(2024, 3, 9, 23, 59, 0, 0, colombo), "Yesterday"},
		{"two days ago", time.Date(2024, 3, 8, 12, 0, 0, 0, colombo), "Mar 8"},
		{"last year", time.Date(2023, 12, 31, 12, 0, 0, 0, colombo), "Dec 31, 2023"},
		// 20:00 UTC on the 9th is 01:30 on the 10th in Colombo
		{"converted to local zone", time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC), "01:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimestamp(tt.at, now))
		})
	}
}
