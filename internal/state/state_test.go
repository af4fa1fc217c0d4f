package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchSetsLoadingBeforeReturning(t *testing.T) {
	sc := NewScope(context.Background())
	defer sc.Close()

	var slot Slot[int]
	release := make(chan struct{})
	Launch(sc, &slot, func(ctx context.Context) (int, error) {
		<-release
		return 42, nil
	}, func(err error) string { return err.Error() })

	require.True(t, IsLoading(slot.Get()), "expected Loading before the operation finishes")

	close(release)
	sc.Wait()

	value, ok := Value(slot.Get())
	require.True(t, ok)
	assert.Equal(t, 42, value)
}

func TestLaunchReplacesStateWithFailure(t *testing.T) {
	sc := NewScope(context.Background())
	defer sc.Close()

	var slot Slot[string]
	slot.Set(Success[string]{Value: "stale"})

	Launch(sc, &slot, func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	}, func(err error) string { return "failed: " + err.Error() })
	sc.Wait()

	msg, ok := Message(slot.Get())
	require.True(t, ok)
	assert.Equal(t, "failed: boom", msg)
	_, stale := Value(slot.Get())
	assert.False(t, stale)
}

func TestLaunchDropsResultAfterClose(t *testing.T) {
	sc := NewScope(context.Background())

	var slot Slot[int]
	Launch(sc, &slot, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}, func(err error) string { return err.Error() })

	sc.Close()
	assert.True(t, IsLoading(slot.Get()))
}

func TestResetReturnsToIdle(t *testing.T) {
	var slot Slot[int]
	slot.Set(Failure[int]{Message: "nope"})
	slot.Reset()
	assert.Nil(t, slot.Get())
}

func TestSubscribeReceivesEveryTransition(t *testing.T) {
	var slot Slot[int]
	updates, cancel := slot.Subscribe()
	defer cancel()

	assert.Nil(t, <-updates)

	slot.Set(Loading[int]{})
	slot.Set(Success[int]{Value: 7})

	assert.True(t, IsLoading(<-updates))
	value, ok := Value(<-updates)
	require.True(t, ok)
	assert.Equal(t, 7, value)
}

func TestAwaitReturnsTerminalState(t *testing.T) {
	sc := NewScope(context.Background())
	defer sc.Close()

	var slot Slot[int]
	Launch(sc, &slot, func(ctx context.Context) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 0, errors.New("down")
	}, func(err error) string { return err.Error() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, err := slot.Await(ctx)
	require.NoError(t, err)
	msg, ok := Message(st)
	require.True(t, ok)
	assert.Equal(t, "down", msg)
}

func TestVariantsBelongToOnePayloadType(t *testing.T) {
	var s interface{} = Loading[int]{}
	_, ok := s.(State[string])
	assert.False(t, ok)
	_, ok = s.(State[int])
	assert.True(t, ok)
}

func TestSubscribeSnapshotNeverTrailsUpdates(t *testing.T) {
	var slot Slot[int]
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 5000; i++ {
			slot.Set(Success[int]{Value: i})
		}
	}()

	for round := 0; round < 500; round++ {
		updates, cancel := slot.Subscribe()
		last := -1
		for i := 0; i < 4; i++ {
			select {
			case st := <-updates:
				v, _ := Value(st)
				require.GreaterOrEqual(t, v, last)
				last = v
			default:
			}
		}
		cancel()
	}
	<-done
}
