package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct{ changed atomic.Bool }

func (s *stubDetector) HasChanges() bool { return s.changed.Load() }

func TestRun_CallsBackOnChange(t *testing.T) {
	dir := t.TempDir()
	det := &stubDetector{}
	det.changed.Store(true)
	w := New(dir, det, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	called := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			select {
			case called <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// Keep writing until the watcher is registered and reacts.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "a.txt"), []byte(time.Now().String()), 0o644)
		select {
		case <-called:
			return true
		default:
			return false
		}
	}, 4*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRun_SkipsWhenNothingChanged(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, &stubDetector{}, WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	assert.NoError(t, <-done)
	assert.Zero(t, calls.Load())
}

func TestRun_StopsOnCallbackError(t *testing.T) {
	dir := t.TempDir()
	det := &stubDetector{}
	det.changed.Store(true)
	w := New(dir, det, WithDebounce(10*time.Millisecond))
	boom := errors.New("retrain failed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error { return boom })
	}()

	var err error
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "a.txt"), []byte(time.Now().String()), 0o644)
		select {
		case err = <-done:
			return true
		default:
			return false
		}
	}, 4*time.Second, 50*time.Millisecond)
	assert.ErrorIs(t, err, boom)
}

func TestRun_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), &stubDetector{})

	err := w.Run(context.Background(), func(context.Context) error { return nil })

	assert.Error(t, err)
}
