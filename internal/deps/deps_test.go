package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 GB"},
		{-5, "0 GB"},
		{1024 * 1024, "1 MB"},
		{524288000, "500 MB"},
		{943718400, "900 MB"},
		{2684354560, "2.50 GB"},
		{bytesPerGB, "1.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
		assert.Equal(t, FormatBytes(tt.in), FormatBytes(tt.in))
	}
}

func TestParseKilobytes(t *testing.T) {
	n, err := parseKilobytes("2048\t/home/u/app/node_modules\n")
	require.NoError(t, err)
	assert.Equal(t, int64(2048*1024), n)

	_, err = parseKilobytes("")
	assert.Error(t, err)

	_, err = parseKilobytes("du: cannot read")
	assert.Error(t, err)
}

func TestParseBytes(t *testing.T) {
	n, err := parseBytes("  \r\n")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = parseBytes("12345\r\n")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), n)

	n, err = parseBytes("1.5E+09")
	require.NoError(t, err)
	assert.Equal(t, int64(1500000000), n)
}

func newTestProber(m measureFunc) *Prober {
	p := NewProber(50*time.Millisecond, nil)
	p.measure = m
	return p
}

func TestProbe_NoDependencyFolder(t *testing.T) {
	dir := t.TempDir()
	p := newTestProber(func(context.Context, string) (int64, error) {
		t.Fatal("measure should not run without node_modules")
		return 0, nil
	})

	e := p.Probe(context.Background(), dir)
	assert.False(t, e.Exists)
	assert.Zero(t, e.SizeBytes)
	assert.Nil(t, e.SizeFormatted)
	assert.False(t, e.ScannedAt.IsZero())
}

func TestProbe_Success(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, DirName), 0o755))

	p := newTestProber(func(_ context.Context, d string) (int64, error) {
		assert.Equal(t, filepath.Join(dir, DirName), d)
		return 524288000, nil
	})

	e := p.Probe(context.Background(), dir)
	assert.True(t, e.Exists)
	assert.Equal(t, int64(524288000), e.SizeBytes)
	assert.Equal(t, "500 MB", e.Label())
	assert.Empty(t, e.Error)
}

func TestProbe_FailureDegrades(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, DirName), 0o755))

	p := newTestProber(func(context.Context, string) (int64, error) {
		return 0, errors.New("permission denied")
	})

	e := p.Probe(context.Background(), dir)
	assert.False(t, e.Exists)
	assert.Zero(t, e.SizeBytes)
	assert.Contains(t, e.Error, "permission denied")
}

func TestProbe_Timeout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, DirName), 0o755))

	p := newTestProber(func(ctx context.Context, _ string) (int64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	start := time.Now()
	e := p.Probe(context.Background(), dir)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, e.Exists)
	assert.Contains(t, e.Error, "timed out")
}

func TestIsStale(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	present := Entry{Exists: true, SizeBytes: 10}
	old := now.Add(-31 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)

	assert.True(t, IsStale(present, old, false, now, DefaultRetention))
	assert.False(t, IsStale(present, old, true, now, DefaultRetention), "running projects are never stale")
	assert.False(t, IsStale(present, time.Time{}, false, now, DefaultRetention), "never launched is never stale")
	assert.False(t, IsStale(present, recent, false, now, DefaultRetention))
	assert.False(t, IsStale(Entry{}, old, false, now, DefaultRetention), "no folder means nothing to clean")
}

func TestStaleProjects(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-40 * 24 * time.Hour)
	sizes := map[string]Entry{
		"/p/a": {Exists: true, SizeBytes: 100},
		"/p/b": {Exists: true, SizeBytes: 900},
		"/p/c": {Exists: true, SizeBytes: 500},
		"/p/d": {Exists: true, SizeBytes: 700},
	}
	started := map[string]time.Time{
		"/p/a": old,
		"/p/b": old,
		"/p/c": old,
	}
	running := func(path string) bool { return path == "/p/c" }

	got := StaleProjects([]string{"/p/a", "/p/b", "/p/c", "/p/d", "/p/e"}, sizes, started, running, now, DefaultRetention)
	require.Len(t, got, 2)
	assert.Equal(t, "/p/b", got[0].Path)
	assert.Equal(t, "/p/a", got[1].Path)
	assert.Equal(t, int64(1000), TotalBytes(got))
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	nm := filepath.Join(dir, DirName, "left-pad")
	require.NoError(t, os.MkdirAll(nm, 0o755))

	require.NoError(t, Remove(dir))
	assert.False(t, Exists(dir))

	assert.Error(t, Remove(dir), "second removal reports the missing folder")
}

func TestRemoveProject_RequiresManifest(t *testing.T) {
	dir := t.TempDir()
	err := RemoveProject(dir)
	assert.ErrorIs(t, err, ErrUnsafePath)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{}`), 0o644))
	require.NoError(t, RemoveProject(dir))
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCheckPath(t *testing.T) {
	assert.ErrorIs(t, checkPath(""), ErrUnsafePath)
	assert.ErrorIs(t, checkPath("relative/dir"), ErrUnsafePath)
	assert.ErrorIs(t, checkPath(string(filepath.Separator)), ErrUnsafePath)
}
