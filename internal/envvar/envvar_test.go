package envvar_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/tasksync/internal/envvar"
)

type fakeProvider map[string]string

func (p fakeProvider) Get(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", errors.New("not found")
	}

	return v, nil
}

func TestConfiguration_Get(t *testing.T) {
	t.Setenv("TASKSYNC_TEST_PLAIN", "plain")
	t.Setenv("TASKSYNC_TEST_SECRET", "ignored")
	t.Setenv("TASKSYNC_TEST_SECRET_SECURE", "db:password")
	t.Setenv("TASKSYNC_TEST_MISSING_SECURE", "db:unknown")

	conf := envvar.New(fakeProvider{"db:password": "s3cr3t"})

	val, err := conf.Get("TASKSYNC_TEST_PLAIN")
	require.NoError(t, err)
	assert.Equal(t, "plain", val)

	val, err = conf.Get("TASKSYNC_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", val)

	_, err = conf.Get("TASKSYNC_TEST_MISSING")
	assert.Error(t, err)

	val, err = conf.Get("TASKSYNC_TEST_UNSET")
	require.NoError(t, err)
	assert.Empty(t, val)

	val, err = conf.GetDefault("TASKSYNC_TEST_UNSET", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", val)
}

func TestConfiguration_Get_NoProvider(t *testing.T) {
	t.Setenv("TASKSYNC_TEST_NOPROV_SECURE", "db:password")

	_, err := envvar.New(nil).Get("TASKSYNC_TEST_NOPROV")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TASKSYNC_TEST_LOADED=yes\n"), 0o600))

	t.Cleanup(func() { os.Unsetenv("TASKSYNC_TEST_LOADED") })

	require.NoError(t, envvar.Load(path))
	assert.Equal(t, "yes", os.Getenv("TASKSYNC_TEST_LOADED"))

	assert.NoError(t, envvar.Load(""))
	assert.Error(t, envvar.Load(filepath.Join(t.TempDir(), "missing.env")))
}
