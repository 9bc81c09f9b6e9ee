package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func stubPasswords(t *testing.T, values ...string) {
	t.Helper()
	original := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = original })
	readPasswordFunc = func() ([]byte, error) {
		next := values[0]
		values = values[1:]
		return []byte(next), nil
	}
}

func TestAdminCommands(t *testing.T) {
	t.Setenv("HORAS_DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "admin.db"))
	t.Setenv("HORAS_JWT_SECRET", "secret")

	out, err := runCmd(t, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "schema up to date")

	stubPasswords(t, "s3nh4forte", "s3nh4forte")
	out, err = runCmd(t, "adduser", "--name", "Prof. Marina", "--email", "marina@example.com", "--role", "coordinator")
	require.NoError(t, err)
	require.Contains(t, out, "as coordinator")

	stubPasswords(t, "s3nh4forte", "outra")
	_, err = runCmd(t, "adduser", "--name", "X", "--email", "x@example.com")
	require.EqualError(t, err, "passwords do not match")

	out, err = runCmd(t, "recompute")
	require.NoError(t, err)
	require.Contains(t, out, "recomputed 0 students")

	_, err = runCmd(t, "recompute", "--list-id", "42")
	require.Error(t, err)
}
