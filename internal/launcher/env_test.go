package launcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeVenv creates a minimal virtual environment layout under dir.
func makeVenv(t *testing.T, dir string) string {
	t.Helper()
	venv := filepath.Join(dir, ".venv")
	require.NoError(t, os.MkdirAll(filepath.Join(venv, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(venv, "pyvenv.cfg"), []byte("home = /usr/bin\n"), 0o644))
	return venv
}

func TestActivate(t *testing.T) {
	t.Parallel()

	venv := makeVenv(t, t.TempDir())
	base := []string{
		"PATH=/usr/bin:/bin",
		"PYTHONHOME=/usr",
		"VIRTUAL_ENV=/somewhere/else",
		"HOME=/home/app",
	}

	env, err := activate(venv, base)
	require.NoError(t, err)

	absVenv, err := filepath.Abs(venv)
	require.NoError(t, err)
	binDir := filepath.Join(absVenv, "bin")

	assert.Contains(t, env, "PATH="+binDir+":/usr/bin:/bin")
	assert.Contains(t, env, "VIRTUAL_ENV="+absVenv)
	assert.Contains(t, env, "HOME=/home/app")
	for _, kv := range env {
		assert.NotContains(t, kv, "PYTHONHOME=")
		assert.NotEqual(t, "VIRTUAL_ENV=/somewhere/else", kv)
	}
}

func TestActivateNoPATHInBase(t *testing.T) {
	t.Parallel()

	venv := makeVenv(t, t.TempDir())
	env, err := activate(venv, []string{"HOME=/home/app"})
	require.NoError(t, err)

	absVenv, err := filepath.Abs(venv)
	require.NoError(t, err)
	assert.Contains(t, env, "PATH="+filepath.Join(absVenv, "bin"))
}

func TestActivateMissingDescriptor(t *testing.T) {
	t.Parallel()

	// directory exists but has no pyvenv.cfg
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))

	env, err := activate(dir, []string{"PATH=/usr/bin"})
	assert.Nil(t, env)
	require.Error(t, err)

	var launchErr *Error
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, ErrActivation, launchErr.Code)
}

func TestActivateMissingVenv(t *testing.T) {
	t.Parallel()

	env, err := activate(filepath.Join(t.TempDir(), "no-such-venv"), []string{"PATH=/usr/bin"})
	assert.Nil(t, env)
	require.Error(t, err)

	var launchErr *Error
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, ErrActivation, launchErr.Code)
}

func TestResolveCABundle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	require.NoError(t, os.WriteFile(certPath, []byte("not really a cert"), 0o600))

	abs, err := resolveCABundle(certPath)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, certPath, abs)
}

func TestResolveCABundleRelative(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cert.pem"), []byte("pem"), 0o600))

	// resolveCABundle resolves relative paths against the working directory
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	abs, err := resolveCABundle("cert.pem")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, "cert.pem", filepath.Base(abs))
}

func TestResolveCABundleMissing(t *testing.T) {
	t.Parallel()

	abs, err := resolveCABundle(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Empty(t, abs)
	require.Error(t, err)

	var launchErr *Error
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, ErrPreflight, launchErr.Code)
}

func TestSetEnv(t *testing.T) {
	t.Parallel()

	env := []string{"A=1", "B=2"}
	env = setEnv(env, "B", "20")
	assert.Equal(t, []string{"A=1", "B=20"}, env)

	env = setEnv(env, "C", "3")
	assert.Equal(t, []string{"A=1", "B=20", "C=3"}, env)
}

func TestLookPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exe := filepath.Join(dir, "fakeflask")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notexec"), []byte("data"), 0o644))

	env := []string{"PATH=" + dir + ":/does/not/exist"}

	resolved, err := lookPath(env, "fakeflask")
	require.NoError(t, err)
	assert.Equal(t, exe, resolved)

	// non-executable files are skipped
	_, err = lookPath(env, "notexec")
	require.Error(t, err)

	// absolute paths pass through untouched
	resolved, err = lookPath(env, "/usr/bin/anything")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/anything", resolved)

	_, err = lookPath(env, "no-such-command")
	require.Error(t, err)
	var launchErr *Error
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, ErrSpawn, launchErr.Code)
}
