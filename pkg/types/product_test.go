package types

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProduct(t *testing.T) {
	t.Run("course purchase", func(t *testing.T) {
		p := DecodeProduct("creditcard", lo.ToPtr("course-1"))
		assert.True(t, p.IsCourse())
		assert.False(t, p.IsSubscription())
	})

	t.Run("subscription purchase", func(t *testing.T) {
		p := DecodeProduct("subscription-yearly", nil)
		assert.False(t, p.IsCourse())
		require.True(t, p.IsSubscription())
		assert.Equal(t, PlanIntervalYearly, *p.Interval)
	})

	t.Run("subscription with a course id is both", func(t *testing.T) {
		p := DecodeProduct("subscription-monthly", lo.ToPtr("course-1"))
		assert.True(t, p.IsCourse())
		assert.True(t, p.IsSubscription())
	})

	t.Run("unknown interval yields no subscription", func(t *testing.T) {
		p := DecodeProduct("subscription-weekly", nil)
		assert.False(t, p.IsSubscription())
	})

	t.Run("empty course id is not a course", func(t *testing.T) {
		p := DecodeProduct("wechat", lo.ToPtr(""))
		assert.False(t, p.IsCourse())
	})

	t.Run("prefix must match exactly", func(t *testing.T) {
		p := DecodeProduct("subscriptions-yearly", nil)
		assert.False(t, p.IsSubscription())
	})
}

func TestPlanIntervalOffset(t *testing.T) {
	tests := []struct {
		interval PlanInterval
		months   int
		years    int
	}{
		{PlanIntervalMonthly, 1, 0},
		{PlanIntervalQuarterly, 3, 0},
		{PlanIntervalYearly, 0, 1},
		{PlanIntervalTwoYears, 0, 2},
		{PlanIntervalThreeYears, 0, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.interval), func(t *testing.T) {
			require.True(t, tt.interval.Valid())
			months, years := tt.interval.Offset()
			assert.Equal(t, tt.months, months)
			assert.Equal(t, tt.years, years)
		})
	}
	assert.False(t, PlanInterval("weekly").Valid())
}
