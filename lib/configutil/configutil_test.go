package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type portalConfig struct {
	Student  string `json:"student"`
	LoginURL string `json:"login_url"`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"),
		`{student: "23307110001", login_url: "https://uis.fudan.edu.cn/authserver/login"}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"),
		`{login_url: "http://127.0.0.1:8080/login"}`)

	cfg, err := ReadConfig[portalConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "23307110001", cfg.Student)
	require.Equal(t, "http://127.0.0.1:8080/login", cfg.LoginURL)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{student: "alice"}`)

	cfg, err := ReadConfig[portalConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "alice", cfg.Student)
}

func TestReadConfigMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadConfig[portalConfig](filepath.Join(dir, "config.json5"))
	require.True(t, os.IsNotExist(err))
}
