package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected time.Time
		ok       bool
	}{
		{
			name:     "RFC3339",
			input:    "2026-08-01T12:30:00Z",
			expected: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "RFC3339 with nanos and offset",
			input:    "2026-08-01T12:30:00.5+02:00",
			expected: time.Date(2026, 8, 1, 10, 30, 0, 500000000, time.UTC),
			ok:       true,
		},
		{
			name:     "date time without zone",
			input:    "2026-08-01T12:30:00",
			expected: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "date time with space",
			input:    "2026-08-01 12:30:00",
			expected: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "epoch seconds",
			input:    "1700000000",
			expected: time.Unix(1700000000, 0),
			ok:       true,
		},
		{
			name:     "epoch milliseconds",
			input:    "1700000000000",
			expected: time.UnixMilli(1700000000000),
			ok:       true,
		},
		{name: "empty string", input: "", ok: false},
		{name: "garbage", input: "yesterday", ok: false},
		{name: "negative epoch", input: "-5", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, ok := ParseTime(tc.input)

			if !tc.ok {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.True(t, tc.expected.Equal(parsed), "expected %v, got %v", tc.expected, parsed)
		})
	}
}
