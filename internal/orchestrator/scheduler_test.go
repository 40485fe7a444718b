package orchestrator

import (
	"testing"
	"time"
)

func TestCronSpec(t *testing.T) {
	tests := []struct {
		interval time.Duration
		want     string
	}{
		{interval: 30 * time.Second, want: "*/1 * * * *"},
		{interval: time.Minute, want: "*/1 * * * *"},
		{interval: 5 * time.Minute, want: "*/5 * * * *"},
		{interval: 59 * time.Minute, want: "*/59 * * * *"},
		{interval: time.Hour, want: "0 */1 * * *"},
		{interval: 90 * time.Minute, want: "0 */1 * * *"},
		{interval: 6 * time.Hour, want: "0 */6 * * *"},
		{interval: 48 * time.Hour, want: "0 */23 * * *"},
	}

	for _, tt := range tests {
		if got := cronSpec(tt.interval); got != tt.want {
			t.Errorf("cronSpec(%v) = %q, want %q", tt.interval, got, tt.want)
		}
	}
}
