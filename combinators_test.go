package promise

import (
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapChainsTransforms(t *testing.T) {
	p := New(func(report func(Outcome[int])) {
		go func() {
			report(Success(5))
		}()
	})

	doubled := Map(p, func(v int) int { return v * 2 })
	text := Map(doubled, func(v int) string { return strconv.Itoa(v) })

	v, err := text.Await()
	require.NoError(t, err)
	assert.Equal(t, "10", v)
}

func TestMapPropagatesFailureUntransformed(t *testing.T) {
	boom := errors.New("boom")
	p := Broken[int](boom)

	var ran int32
	mapped := Map(p, func(v int) int {
		atomic.AddInt32(&ran, 1)
		return v
	})

	_, err := mapped.Await()
	assert.Same(t, boom, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

func TestTryMapFailureResolvesToFailure(t *testing.T) {
	bad := errors.New("not a number")
	p := Fulfilled("five")

	n := TryMap(p, func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, bad
		}
		return v, nil
	})

	_, err := n.Await()
	assert.Same(t, bad, err)
}

func TestFlatMapForwardsDependentOutcome(t *testing.T) {
	p := Fulfilled(3)

	chained := FlatMap(p, func(v int) *Promise[string] {
		return New(func(report func(Outcome[string])) {
			go func() {
				time.Sleep(5 * time.Millisecond)
				report(Success(strconv.Itoa(v * 10)))
			}()
		})
	})

	v, err := chained.Await()
	require.NoError(t, err)
	assert.Equal(t, "30", v)
}

func TestFlatMapSkipsTransformOnFailure(t *testing.T) {
	boom := errors.New("boom")
	p := Broken[int](boom)

	var ran int32
	chained := FlatMap(p, func(int) *Promise[int] {
		atomic.AddInt32(&ran, 1)
		return Fulfilled(0)
	})

	_, err := chained.Await()
	assert.Same(t, boom, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

func TestCatchMapReplacesFailure(t *testing.T) {
	boom := errors.New("boom")
	p := Broken[int](boom)

	recovered := CatchMap(p, func(err error) *Promise[int] {
		assert.Same(t, boom, err)
		return Fulfilled(99)
	})

	v, err := recovered.Await()
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestCatchMapForwardsReplacementFailure(t *testing.T) {
	worse := errors.New("worse")
	p := Broken[int](errors.New("boom"))

	recovered := CatchMap(p, func(error) *Promise[int] {
		return Broken[int](worse)
	})

	_, err := recovered.Await()
	assert.Same(t, worse, err)
}

func TestCatchMapPassesSuccessThrough(t *testing.T) {
	p := Fulfilled(1)

	var ran int32
	recovered := CatchMap(p, func(error) *Promise[int] {
		atomic.AddInt32(&ran, 1)
		return Fulfilled(0)
	})

	v, err := recovered.Await()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

func TestDerivedPromisesAreLazy(t *testing.T) {
	var runs int32
	p := New(func(report func(Outcome[int])) {
		atomic.AddInt32(&runs, 1)
		report(Success(1))
	})

	mapped := Map(p, func(v int) int { return v + 1 })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs), "source resolver ran before the chain was observed")

	v, err := mapped.Await()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}
