package runtime

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	clockerrors "github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/output"
)

const testConfigPath = "/cfg/clockset/config.yaml"

func newTestContext(t *testing.T, fsys afero.Fs) *Context {
	t.Helper()
	if fsys == nil {
		fsys = afero.NewMemMapFs()
	}
	t.Setenv("CLOCKSET_SOCKET", filepath.Join(t.TempDir(), "absent.sock"))
	ctx, err := New(Options{ConfigPath: testConfigPath, InMemory: true, Fs: fsys, Format: output.FormatCLI})
	require.NoError(t, err)
	t.Cleanup(func() { ctx.Close() })
	return ctx
}

// =============================================================================
// Context Tests
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.NotEmpty(t, opts.ConfigPath)
	assert.False(t, opts.InMemory)
	assert.True(t, opts.Connect)
	assert.NotNil(t, opts.Fs)
	assert.Equal(t, output.FormatCLI, opts.Format)
	assert.Equal(t, output.ColorAuto, opts.ColorMode)
}

func TestNew(t *testing.T) {
	ctx := newTestContext(t, nil)

	assert.NotNil(t, ctx.Config)
	assert.NotNil(t, ctx.Local)
	assert.NotNil(t, ctx.Presets)
	assert.Equal(t, testConfigPath, ctx.Config.Path)
	assert.Equal(t, model.TimeFormat24h, ctx.Formatter.TimeFormat)

	_, ok := ctx.Lookup(CapDaemon)
	assert.False(t, ok, "Connect was not requested")
}

func TestNewMemoryFromEnv(t *testing.T) {
	t.Setenv("CLOCKSET_LOCAL_PATH", ":memory:")
	ctx, err := New(Options{ConfigPath: testConfigPath, Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	defer ctx.Close()
	assert.Empty(t, ctx.Local.Path())
}

func TestNewWithLocalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	ctx, err := New(Options{ConfigPath: testConfigPath, LocalPath: path, Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	defer ctx.Close()
	assert.Equal(t, path, ctx.Local.Path())
}

func TestNewInvalidConfig(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, testConfigPath, []byte("time_format: [oops"), 0o644))

	_, err := New(Options{ConfigPath: testConfigPath, InMemory: true, Fs: fsys})
	require.Error(t, err)
	assert.True(t, clockerrors.IsUserError(err))
}

func TestNewConnectWithoutDaemon(t *testing.T) {
	t.Setenv("CLOCKSET_SOCKET", filepath.Join(t.TempDir(), "absent.sock"))
	t.Setenv("CLOCKSET_DIAL_TIMEOUT", "100ms")

	ctx, err := New(Options{ConfigPath: testConfigPath, InMemory: true, Fs: afero.NewMemMapFs(), Connect: true})
	require.NoError(t, err, "a missing daemon is not fatal")
	defer ctx.Close()

	_, ok := ctx.Lookup(CapDaemon)
	assert.False(t, ok)

	_, err = ctx.Daemon()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon is not running")

	// Presets still work from the local copy.
	p := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0)})
	require.NoError(t, ctx.Presets.Save(p))
	assert.Len(t, ctx.Presets.List(), 1)
}

func TestRegisterLookup(t *testing.T) {
	ctx := newTestContext(t, nil)

	_, ok := ctx.Lookup("thing")
	assert.False(t, ok)

	ctx.Register("thing", 42)
	v, ok := ctx.Lookup("thing")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	ctx.Register(CapDaemon, "not a client")
	_, err := ctx.Daemon()
	assert.Error(t, err, "a capability of the wrong type is treated as absent")
}

func TestSecret(t *testing.T) {
	keyring.MockInit()
	ctx := newTestContext(t, nil)

	_, ok := ctx.Secret()
	assert.False(t, ok)

	require.NoError(t, keyring.Set("clockset", "rpc-secret", "abc123"))
	secret, ok := ctx.Secret()
	require.True(t, ok)
	assert.Equal(t, "abc123", secret)

	v, ok := ctx.Lookup(CapSecret)
	require.True(t, ok)
	assert.Equal(t, "abc123", v)
}

func TestTimeFormat(t *testing.T) {
	t.Run("config_file", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, testConfigPath, []byte("time_format: 12h\n"), 0o644))
		ctx := newTestContext(t, fsys)
		assert.Equal(t, model.TimeFormat12h, ctx.TimeFormat())
		assert.Equal(t, model.TimeFormat12h, ctx.Formatter.TimeFormat)
	})

	t.Run("local_overrides_file", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, testConfigPath, []byte("time_format: 12h\n"), 0o644))
		ctx := newTestContext(t, fsys)

		require.NoError(t, ctx.SetTimeFormat(model.TimeFormat24h))
		assert.Equal(t, model.TimeFormat24h, ctx.TimeFormat())
		assert.Equal(t, model.TimeFormat24h, ctx.Formatter.TimeFormat)
	})

	t.Run("invalid", func(t *testing.T) {
		ctx := newTestContext(t, nil)
		err := ctx.SetTimeFormat("13h")
		assert.ErrorIs(t, err, clockerrors.ErrInvalidTimeFormat)
		assert.Equal(t, model.TimeFormat24h, ctx.TimeFormat())
	})
}

func TestContextClose(t *testing.T) {
	ctx, err := New(Options{ConfigPath: testConfigPath, InMemory: true, Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	assert.NoError(t, ctx.Close())
}

func TestContextFormatters(t *testing.T) {
	ctx := newTestContext(t, nil)
	assert.NotNil(t, ctx.CLIFormatter())
	assert.NotNil(t, ctx.JSONFormatter())
	assert.False(t, ctx.IsJSON())

	ctx.Formatter.Format = output.FormatJSON
	assert.True(t, ctx.IsJSON())
}

func TestContextDebugf(t *testing.T) {
	ctx := newTestContext(t, nil)
	var buf bytes.Buffer
	ctx.Formatter.Writer = &buf

	ctx.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	ctx.Debug = true
	ctx.Debugf("shown %d", 2)
	assert.Equal(t, "[DEBUG] shown 2\n", buf.String())
}

// =============================================================================
// Error Tests
// =============================================================================

func TestFormatError(t *testing.T) {
	err := clockerrors.Invalid(clockerrors.ErrPresetNotFound, "name", "Coffee")
	msg := FormatError(err)
	assert.Contains(t, msg, "clockset preset list")

	plain := FormatError(errors.New("boom"))
	assert.Equal(t, "boom", plain)

	full := FormatError(NewDiskFullError("write", "/x", syscall.ENOSPC))
	assert.Contains(t, full, "Free up disk space")
}

func TestDiskFullError(t *testing.T) {
	err := NewDiskFullError("write", "/data/local.db", syscall.ENOSPC)
	assert.Equal(t, "disk full during write on /data/local.db: no space left on device", err.Error())
	assert.ErrorIs(t, err, ErrDiskFull)

	noPath := NewDiskFullError("sync", "", errors.New("x"))
	assert.Equal(t, "disk full during sync: x", noPath.Error())
}

func TestIsDiskFullError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrDiskFull, true},
		{"typed", NewDiskFullError("write", "", errors.New("x")), true},
		{"enospc", syscall.ENOSPC, true},
		{"wrapped_enospc", fmt.Errorf("write: %w", syscall.ENOSPC), true},
		{"sqlite_full", errors.New("database or disk is full (13)"), true},
		{"other_errno", syscall.EACCES, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDiskFullError(tt.err))
		})
	}
}

func TestWrapDiskFullError(t *testing.T) {
	assert.NoError(t, WrapDiskFullError(nil, "write", ""))

	other := errors.New("boom")
	assert.Same(t, other, WrapDiskFullError(other, "write", ""))

	wrapped := WrapDiskFullError(syscall.ENOSPC, "write", "/x")
	var dfe *DiskFullError
	require.ErrorAs(t, wrapped, &dfe)
	assert.Equal(t, "/x", dfe.Path)
}
