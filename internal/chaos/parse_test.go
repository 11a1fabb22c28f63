package chaos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		directive string
		want      Injection
		wantErr   bool
	}{
		{
			name:      "empty",
			directive: "",
			want:      Injection{},
		},
		{
			name:      "bare milliseconds",
			directive: "lat:2500,err:0.03,cpu:400",
			want: Injection{
				Latency:   2500 * time.Millisecond,
				ErrorRate: 0.03,
				CPUBurn:   400 * time.Millisecond,
			},
		},
		{
			name:      "duration suffixes",
			directive: "lat:100ms,cpu:2s",
			want: Injection{
				Latency: 100 * time.Millisecond,
				CPUBurn: 2 * time.Second,
			},
		},
		{
			name:      "case insensitive keys with spaces",
			directive: "LAT: 300 , Err: 0.5",
			want: Injection{
				Latency:   300 * time.Millisecond,
				ErrorRate: 0.5,
			},
		},
		{
			name:      "empty values skipped",
			directive: "lat:,err:0.1",
			want:      Injection{ErrorRate: 0.1},
		},
		{
			name:      "unknown keys ignored",
			directive: "custom:xyz,lat:10",
			want:      Injection{Latency: 10 * time.Millisecond},
		},
		{
			name:      "bad latency",
			directive: "lat:nonsense",
			wantErr:   true,
		},
		{
			name:      "bad error rate",
			directive: "err:lots",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.directive)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_AssembleRoundTrip(t *testing.T) {
	spec := Assemble("", "250", "0.1", "50")

	inj, err := Parse(spec.String())
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, inj.Latency)
	assert.Equal(t, 0.1, inj.ErrorRate)
	assert.Equal(t, 50*time.Millisecond, inj.CPUBurn)
	assert.False(t, inj.Zero())
}
