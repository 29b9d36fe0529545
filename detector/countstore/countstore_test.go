package countstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.GetCount(ctx, "analyses", "spez", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.Increment(ctx, "analyses", "spez"))
	assert.NoError(cs.Increment(ctx, "analyses", "spez"))

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCount(ctx, "analyses", "spez", period)
		assert.NoError(err)
		assert.Equal(2, c)
	}

	c, err = cs.GetCountDistinct(ctx, "tier", "high", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.IncrementDistinct(ctx, "tier", "high", "spez"))
	assert.NoError(cs.IncrementDistinct(ctx, "tier", "high", "spez"))
	assert.NoError(cs.IncrementDistinct(ctx, "tier", "high", "spez"))
	c, err = cs.GetCountDistinct(ctx, "tier", "high", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)

	assert.NoError(cs.IncrementDistinct(ctx, "tier", "high", "automoderator"))
	assert.NoError(cs.IncrementDistinct(ctx, "tier", "high", "bestdeals4982"))

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCountDistinct(ctx, "tier", "high", period)
		assert.NoError(err)
		assert.Equal(3, c)
	}
}

func TestMemCountStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	// interleave increments and reads across goroutines; run with -race
	var wg sync.WaitGroup
	fnInc := func(name, val string, times int) {
		defer wg.Done()
		for i := 0; i < times; i++ {
			assert.NoError(cs.Increment(ctx, name, val))
			assert.NoError(cs.IncrementDistinct(ctx, name, name, val))
			time.Sleep(time.Nanosecond)
		}
	}
	fnRead := func(name, val string, times int) {
		for i := 0; i < times; i++ {
			_, err := cs.GetCount(ctx, name, val, PeriodTotal)
			assert.NoError(err)
			time.Sleep(time.Nanosecond)
		}
	}
	wg.Add(4)
	go fnInc("analyses", "spez", 10)
	go fnInc("analyses", "spez", 10)
	go fnRead("analyses", "spez", 10)
	go fnInc("requests", "10.0.0.1", 6)
	go fnInc("requests", "10.0.0.1", 6)
	go fnRead("requests", "10.0.0.1", 6)
	wg.Wait()

	c, err := cs.GetCount(ctx, "analyses", "spez", PeriodTotal)
	assert.NoError(err)
	assert.Equal(20, c)
	c, err = cs.GetCount(ctx, "requests", "10.0.0.1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(12, c)

	c, err = cs.GetCountDistinct(ctx, "analyses", "analyses", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)
}
