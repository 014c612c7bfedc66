package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetTreewalkHomeFromEnv(t *testing.T) {
	home := filepath.Join(t.TempDir(), "custom")
	t.Setenv("TREEWALK_HOME", home)

	got, err := GetTreewalkHome()
	if err != nil {
		t.Fatalf("GetTreewalkHome() error = %v", err)
	}
	if got != home {
		t.Errorf("GetTreewalkHome() = %q, want %q", got, home)
	}
	if info, err := os.Stat(home); err != nil || !info.IsDir() {
		t.Errorf("home directory not created: %v", err)
	}

	dbPath, err := GetHistoryDBPath()
	if err != nil {
		t.Fatalf("GetHistoryDBPath() error = %v", err)
	}
	if dbPath != filepath.Join(home, "history.db") {
		t.Errorf("GetHistoryDBPath() = %q", dbPath)
	}

	cfg := DefaultConfig()
	if got, _ := cfg.HistoryDBPath(); got != dbPath {
		t.Errorf("HistoryDBPath() = %q, want home default %q", got, dbPath)
	}
	cfg.History.DBPath = "/elsewhere/h.db"
	if got, _ := cfg.HistoryDBPath(); got != "/elsewhere/h.db" {
		t.Errorf("HistoryDBPath() = %q, want configured path", got)
	}
}

func TestGetTreewalkHomeFindsAncestor(t *testing.T) {
	t.Setenv("TREEWALK_HOME", "")
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, ".treewalk"), 0755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)

	got, err := GetTreewalkHome()
	if err != nil {
		t.Fatalf("GetTreewalkHome() error = %v", err)
	}
	if got != filepath.Join(root, ".treewalk") {
		t.Errorf("GetTreewalkHome() = %q, want ancestor home", got)
	}
}

func TestGetTreewalkHomeCreatesInCwd(t *testing.T) {
	t.Setenv("TREEWALK_HOME", "")
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	got, err := GetTreewalkHome()
	if err != nil {
		t.Fatalf("GetTreewalkHome() error = %v", err)
	}
	// An ancestor of the temp dir could carry its own .treewalk.
	if got != filepath.Join(dir, ".treewalk") && findExistingHome(filepath.Dir(dir)) == "" {
		t.Errorf("GetTreewalkHome() = %q", got)
	}
}
