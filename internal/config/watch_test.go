package config

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netwatch-io/netwatch/internal/model"
)

func TestWatchReloadsOnFileChange(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(model.AppConfig{DataRetentionDays: 1}))

	var mu sync.Mutex
	var seen []uint64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Watch(ctx, func(cfg model.AppConfig) {
			mu.Lock()
			seen = append(seen, cfg.DataRetentionDays)
			mu.Unlock()
		})
	}()

	// Let the watcher register before the edit.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Save(model.AppConfig{DataRetentionDays: 2}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 5*time.Second, 20*time.Millisecond, "watcher never fired")

	mu.Lock()
	assert.Equal(t, uint64(2), seen[len(seen)-1])
	mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestWatchSkipsUnparseableEdit(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(model.AppConfig{DataRetentionDays: 1}))

	var fired sync.WaitGroup
	fired.Add(1)
	var once sync.Once
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = s.Watch(ctx, func(model.AppConfig) {
			once.Do(fired.Done)
		})
	}()

	time.Sleep(100 * time.Millisecond)

	// A broken edit must not invoke the callback; a following valid save
	// still gets through.
	require.NoError(t, os.WriteFile(s.Path(), []byte("{broken"), 0o644))
	time.Sleep(400 * time.Millisecond)
	require.NoError(t, s.Save(model.AppConfig{DataRetentionDays: 3}))

	waitDone := make(chan struct{})
	go func() { fired.Wait(); close(waitDone) }()
	select {
	case <-waitDone:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never recovered after a broken edit")
	}

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cfg.DataRetentionDays)
}
