package kinto

import (
	"testing"
	"time"
)

func TestRecordEntryCreatedAt(t *testing.T) {
	tt := []struct {
		name     string
		record   Record
		expected time.Time
	}{
		{
			name: "details.created preferred",
			record: Record{
				Guid:         "one@x.com",
				Details:      Details{Created: "2023-04-05T06:07:08Z"},
				LastModified: 1500000000000,
			},
			expected: time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC),
		},
		{
			name: "last_modified fallback",
			record: Record{
				Guid:         "two@x.com",
				LastModified: 1500000000000,
			},
			expected: time.UnixMilli(1500000000000),
		},
		{
			name: "unparseable created falls back",
			record: Record{
				Guid:         "three@x.com",
				Details:      Details{Created: "yesterday-ish"},
				LastModified: 1500000000000,
			},
			expected: time.UnixMilli(1500000000000),
		},
	}
	for _, tc := range tt {
		entry := tc.record.Entry()
		if !entry.CreatedAt.Equal(tc.expected) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, entry.CreatedAt)
		}
	}
}
