package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestErrorList(t *testing.T) {
	var l ErrorList
	require.NoError(t, l.Err())
	require.False(t, l.Append(nil, nil))

	err1 := errors.New("one")
	require.True(t, l.Append(err1))
	require.Equal(t, err1, l.Err())

	err2 := errors.New("two")
	l.Append(nil, err2)
	require.Equal(t, []error{err1, err2}, l.Errors())
	require.Equal(t, "one; two", l.Err().Error())
}

func TestPeriodic(t *testing.T) {
	ticks := make(chan struct{}, 8)
	p := &Periodic{
		Interval: time.Millisecond,
		Tick: func(context.Context) error {
			select {
			case ticks <- struct{}{}:
			default:
			}
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatal("tick timeout")
		}
	}
	cancel()
	require.Equal(t, context.Canceled, <-done)
}

func TestRunnerWait(t *testing.T) {
	err1 := errors.New("boom")
	r := NewRunner(context.Background())
	r.Go(
		RunnableFunc(func(context.Context) error { return nil }),
		RunnableFunc(func(context.Context) error { return err1 }),
		RunnableFunc(func(context.Context) error { return context.Canceled }),
	)
	require.Equal(t, err1, r.Wait())
}
