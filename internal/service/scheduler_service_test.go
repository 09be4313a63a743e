package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:00", want: "0 0 9 * * *"},
		{in: "8:05", want: "0 5 8 * * *"},
		{in: "23:59", want: "0 59 23 * * *"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "12:00:00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScheduleDailyRejectsBadTime(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second)
	_, err := s.ScheduleDaily("expired", "bad", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRunJobAppliesTimeout(t *testing.T) {
	s := NewSchedulerService(time.UTC, 10*time.Millisecond)
	var deadline bool
	s.runJob("check", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	})
	assert.True(t, deadline)
}
