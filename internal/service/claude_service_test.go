package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "bare array",
			in:   `[["ai"],["coffee"]]`,
			want: `[["ai"],["coffee"]]`,
		},
		{
			name: "code fence",
			in:   "```json\n[\"a\",\"b\"]\n```",
			want: `["a","b"]`,
		},
		{
			name: "surrounding prose",
			in:   `Sure! Here are the topics: ["golang"] hope that helps`,
			want: `["golang"]`,
		},
		{
			name:    "no array",
			in:      "I could not classify these posts.",
			wantErr: true,
		},
		{
			name:    "truncated array",
			in:      `[["ai"],["cof`,
			wantErr: true,
		},
		{
			name:    "invalid json between brackets",
			in:      `[not json]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONArray(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSplitTopics(t *testing.T) {
	require.Nil(t, splitTopics(""))
	require.Nil(t, splitTopics("   "))
	require.Equal(t, []string{"go", "distributed systems"}, splitTopics("go, distributed systems"))
	require.Equal(t, []string{"go"}, splitTopics(" go , , "))
}
