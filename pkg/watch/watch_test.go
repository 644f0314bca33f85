package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ezoic/yieldcast/pkg/watch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "model.json")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0o600))

	rec := &recorder{}
	w, err := watch.New([]string{target}, 50*time.Millisecond, rec.handle)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte{byte('a' + i)}, 0o600))
	}
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{target}, rec.snapshot())
}

func TestWatcher_SeesReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "reference.csv")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o600))

	rec := &recorder{}
	w, err := watch.New([]string{target}, 20*time.Millisecond, rec.handle)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	tmp := filepath.Join(dir, "reference.csv.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("new"), 0o600))
	require.NoError(t, os.Rename(tmp, target))

	assert.Eventually(t, func() bool { return len(rec.snapshot()) >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "model.json")

	ctx, cancel := context.WithCancel(context.Background())
	w, err := watch.New([]string{target}, 0, func(context.Context, string) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))

	cancel()
	w.Stop()
	w.Stop()
}

func TestNew_Errors(t *testing.T) {
	_, err := watch.New(nil, time.Second, func(context.Context, string) {})
	assert.Error(t, err)

	_, err = watch.New([]string{"x"}, time.Second, nil)
	assert.Error(t, err)
}

func TestStart_MissingDirectory(t *testing.T) {
	w, err := watch.New([]string{filepath.Join(t.TempDir(), "absent", "model.json")}, 0,
		func(context.Context, string) {})
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}
