package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// TestFullLifecycleViaCLI exercises init, add, check, list, and remove the
// way a user would invoke them, confirming the command layer wires each
// package's operation through correctly (spec scenarios S1/S2 at the CLI
// boundary).
func TestFullLifecycleViaCLI(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "game")
	writeFile(t, filepath.Join(root, "data", "a.bin"), "AAA")

	pkgDir := filepath.Join(dir, "pkg")
	writeFile(t, filepath.Join(pkgDir, "VERSION.txt"), "1.0.0")
	writeFile(t, filepath.Join(pkgDir, "README.txt"), "a test mod")
	writeFile(t, filepath.Join(pkgDir, "m1", "data", "a.bin"), "A*")
	writeFile(t, filepath.Join(pkgDir, "m1", "new.bin"), "N")

	if err := run(t, "-C", dir, "init", "--root", root); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := run(t, "-C", dir, "add", pkgDir); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "data", "a.bin"))
	if err != nil || string(got) != "A*" {
		t.Fatalf("data/a.bin=%q,%v want=A*,nil", got, err)
	}
	if _, err := os.Stat(filepath.Join(root, "new.bin")); err != nil {
		t.Fatalf("expected new.bin to be installed: %v", err)
	}

	if err := run(t, "-C", dir, "check"); err != nil {
		t.Fatalf("check failed after a clean install: %v", err)
	}

	if err := run(t, "-C", dir, "list", "-f"); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if err := run(t, "-C", dir, "remove", pkgDir); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	got, err = os.ReadFile(filepath.Join(root, "data", "a.bin"))
	if err != nil || string(got) != "AAA" {
		t.Fatalf("data/a.bin=%q,%v want=AAA,nil after removal", got, err)
	}
	if _, err := os.Stat(filepath.Join(root, "new.bin")); !os.IsNotExist(err) {
		t.Fatalf("expected new.bin to be removed, stat err=%v", err)
	}

	if err := run(t, "-C", dir, "check"); err != nil {
		t.Fatalf("check failed after a clean removal: %v", err)
	}
}

func TestAddFailsWithoutInit(t *testing.T) {
	dir := t.TempDir()
	pkgDir := filepath.Join(dir, "pkg")
	writeFile(t, filepath.Join(pkgDir, "VERSION.txt"), "1.0.0")
	writeFile(t, filepath.Join(pkgDir, "m1", "new.bin"), "N")

	if err := run(t, "-C", dir, "add", pkgDir); err == nil {
		t.Fatalf("expected add to fail without a prior `modman init`")
	}
}

func TestInitRequiresRootFlag(t *testing.T) {
	dir := t.TempDir()
	err := run(t, "-C", dir, "init")
	if err == nil {
		t.Fatalf("expected init to fail without --root")
	}
	if !isUsageError(err) {
		t.Errorf("missing --root should be a usage error, got %v", err)
	}
}

func TestInitRejectsMissingRoot(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "nowhere")

	err := run(t, "-C", dir, "init", "--root", bogus)
	if err == nil {
		t.Fatalf("expected init to fail when --root doesn't exist")
	}
	if !isUsageError(err) {
		t.Errorf("nonexistent --root should be a usage error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "modman.profile")); !os.IsNotExist(statErr) {
		t.Errorf("init should not have written a profile, stat err=%v", statErr)
	}
}

func TestInitRejectsFileAsRoot(t *testing.T) {
	dir := t.TempDir()
	notADir := filepath.Join(dir, "plain-file")
	writeFile(t, notADir, "not a directory")

	err := run(t, "-C", dir, "init", "--root", notADir)
	if err == nil {
		t.Fatalf("expected init to fail when --root is a file")
	}
	if !isUsageError(err) {
		t.Errorf("--root pointing at a file should be a usage error, got %v", err)
	}
}
