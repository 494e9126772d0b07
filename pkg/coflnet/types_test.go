package coflnet

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexTime_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "epoch milliseconds",
			raw:      `1700000000000`,
			expected: time.UnixMilli(1700000000000).UTC(),
		},
		{
			name:     "RFC3339 string",
			raw:      `"2026-08-01T12:30:00Z"`,
			expected: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name:     "date time without zone",
			raw:      `"2026-08-01T12:30:00"`,
			expected: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name:     "epoch milliseconds as string",
			raw:      `"1700000000000"`,
			expected: time.UnixMilli(1700000000000).UTC(),
		},
		{
			name:     "null is the zero time",
			raw:      `null`,
			expected: time.Time{},
		},
		{
			name:     "empty string is the zero time",
			raw:      `""`,
			expected: time.Time{},
		},
		{
			name:    "unparseable string",
			raw:     `"yesterday"`,
			wantErr: true,
		},
		{
			name:    "object",
			raw:     `{"seconds": 12}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ft FlexTime
			err := json.Unmarshal([]byte(tc.raw), &ft)

			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(ft.Time), "expected %v, got %v", tc.expected, ft.Time)
		})
	}
}

func TestRawSnapshotEntry_AliasesStayNilWhenAbsent(t *testing.T) {
	t.Parallel()

	var entry RawSnapshotEntry
	require.NoError(t, json.Unmarshal([]byte(`{"buyPrice": 4.2, "sell_volume": 17}`), &entry))

	require.NotNil(t, entry.BuyPrice)
	assert.Equal(t, 4.2, *entry.BuyPrice)
	assert.Nil(t, entry.BuyPriceSnake)
	assert.Nil(t, entry.Buy)

	require.NotNil(t, entry.SellVolumeSnake)
	assert.Equal(t, 17.0, *entry.SellVolumeSnake)
	assert.Nil(t, entry.SellVolume)

	assert.Nil(t, entry.Timestamp)
}

func TestRawHistoryEntry_Decode(t *testing.T) {
	t.Parallel()

	raw := `{
		"itemId": "ENCHANTED_EMERALD",
		"timestamp": "2026-08-01T00:00:00Z",
		"maxBuy": 110, "min_sell": 90.5
	}`

	var entry RawHistoryEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))

	require.NotNil(t, entry.ItemID)
	assert.Equal(t, "ENCHANTED_EMERALD", *entry.ItemID)
	require.NotNil(t, entry.Timestamp)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), entry.Timestamp.Time)
	require.NotNil(t, entry.MaxBuy)
	assert.Equal(t, 110.0, *entry.MaxBuy)
	require.NotNil(t, entry.MinSellSnake)
	assert.Equal(t, 90.5, *entry.MinSellSnake)
}
