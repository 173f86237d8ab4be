package verifier

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modman/modman/internal/installer"
	"github.com/modman/modman/internal/modpath"
	"github.com/modman/modman/internal/modpkg"
	"github.com/modman/modman/internal/store"
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

func setupInstalled(t *testing.T) (workDir, root string, profile *store.Profile) {
	t.Helper()

	workDir = t.TempDir()
	root = filepath.Join(workDir, "game")
	writeFile(t, filepath.Join(root, "data", "a.bin"), "AAA")

	profile = &store.Profile{RootDirectory: root, Mods: map[store.PackagePath]store.ModManifest{}}
	if err := store.CreateNew(workDir, profile); err != nil {
		t.Fatalf("CreateNew failed: %v", err)
	}

	pkgDir := filepath.Join(workDir, "pkg")
	writeFile(t, filepath.Join(pkgDir, "VERSION.txt"), "1.0.0")
	writeFile(t, filepath.Join(pkgDir, "README.txt"), "a mod")
	writeFile(t, filepath.Join(pkgDir, "m1", "data", "a.bin"), "A*")
	writeFile(t, filepath.Join(pkgDir, "m1", "new.bin"), "N")

	pkg, err := modpkg.Open(pkgDir)
	if err != nil {
		t.Fatalf("modpkg.Open failed: %v", err)
	}
	defer pkg.Close()

	if err := installer.Install(context.Background(), workDir, profile, "pkg", pkg, installer.Options{}); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	return workDir, root, profile
}

func TestVerifyCleanInstallPasses(t *testing.T) {
	t.Parallel()

	workDir, _, profile := setupInstalled(t)

	report, err := Verify(context.Background(), workDir, profile, Options{})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected a clean install to pass all checks, got %+v", report)
	}
}

func TestVerifyDetectsJournalPresence(t *testing.T) {
	t.Parallel()

	workDir, _, profile := setupInstalled(t)
	writeFile(t, filepath.Join(workDir, modpath.JournalPath), "Add data/a.bin\n")

	report, err := Verify(context.Background(), workDir, profile, Options{})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if report.JournalAbsent {
		t.Errorf("expected JournalAbsent=false when a journal file is present")
	}
}

func TestVerifyDetectsInstalledMismatch(t *testing.T) {
	t.Parallel()

	workDir, root, profile := setupInstalled(t)
	writeFile(t, filepath.Join(root, "new.bin"), "TAMPERED")

	report, err := Verify(context.Background(), workDir, profile, Options{})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(report.InstalledMismatches) != 1 {
		t.Fatalf("InstalledMismatches=%v want 1 entry", report.InstalledMismatches)
	}
	if report.OK() {
		t.Errorf("expected OK()=false with an installed mismatch")
	}
}

func TestVerifyDetectsBackupMismatch(t *testing.T) {
	t.Parallel()

	workDir, _, profile := setupInstalled(t)
	writeFile(t, filepath.Join(workDir, modpath.BackupPath, "data", "a.bin"), "CORRUPTED")

	report, err := Verify(context.Background(), workDir, profile, Options{})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(report.BackupMismatches) != 1 {
		t.Fatalf("BackupMismatches=%v want 1 entry", report.BackupMismatches)
	}
}

func TestVerifyDetectsUnknownBackupFile(t *testing.T) {
	t.Parallel()

	workDir, _, profile := setupInstalled(t)
	writeFile(t, filepath.Join(workDir, modpath.BackupPath, "stray.bin"), "???")

	report, err := Verify(context.Background(), workDir, profile, Options{})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(report.UnknownFiles) != 1 || report.UnknownFiles[0].String() != "stray.bin" {
		t.Fatalf("UnknownFiles=%v want=[stray.bin]", report.UnknownFiles)
	}
}
