package updatepkg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modman/modman/internal/apperr"
	"github.com/modman/modman/internal/hashutil"
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

func setupInstalled(t *testing.T, pkgVersion string) (workDir, root, pkgDir string, profile *store.Profile) {
	t.Helper()

	workDir = t.TempDir()
	root = filepath.Join(workDir, "game")
	writeFile(t, filepath.Join(root, "data", "a.bin"), "AAA")

	profile = &store.Profile{RootDirectory: root, Mods: map[store.PackagePath]store.ModManifest{}}
	if err := store.CreateNew(workDir, profile); err != nil {
		t.Fatalf("CreateNew failed: %v", err)
	}

	pkgDir = filepath.Join(workDir, "pkg")
	writeFile(t, filepath.Join(pkgDir, "VERSION.txt"), pkgVersion)
	writeFile(t, filepath.Join(pkgDir, "README.txt"), "a mod")
	writeFile(t, filepath.Join(pkgDir, "m1", "data", "a.bin"), "A*")

	pkg, err := modpkg.Open(pkgDir)
	if err != nil {
		t.Fatalf("modpkg.Open failed: %v", err)
	}
	defer pkg.Close()

	if err := installer.Install(context.Background(), workDir, profile, "pkg", pkg, installer.Options{}); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	return workDir, root, pkgDir, profile
}

func openerFor(pkgDir string) OpenFunc {
	return func(pkgPath store.PackagePath) (modpkg.Package, error) {
		return modpkg.Open(pkgDir)
	}
}

func TestUpdateNoopWhenNothingChanged(t *testing.T) {
	t.Parallel()

	workDir, _, pkgDir, profile := setupInstalled(t, "1.0.0")

	if err := Update(context.Background(), workDir, profile, openerFor(pkgDir), Options{}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	loaded, err := store.LoadAndCheck(workDir)
	if err != nil {
		t.Fatalf("LoadAndCheck failed: %v", err)
	}
	relA, _ := modpath.New("data/a.bin")
	meta := loaded.Mods["pkg"].Files[relA]
	if meta.OriginalHash == nil {
		t.Fatalf("expected original_hash to survive an update with no changes")
	}
}

func TestUpdateReconcilesChangedGameFile(t *testing.T) {
	t.Parallel()

	workDir, root, pkgDir, profile := setupInstalled(t, "1.0.0")

	// Simulate an external game update overwriting the installed file.
	writeFile(t, filepath.Join(root, "data", "a.bin"), "STOCK-V2")

	if err := Update(context.Background(), workDir, profile, openerFor(pkgDir), Options{}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "data", "a.bin"))
	if err != nil || string(got) != "A*" {
		t.Errorf("data/a.bin=%q,%v want=A*,nil (mod file should be reinstalled)", got, err)
	}

	backedUp, err := os.ReadFile(filepath.Join(workDir, modpath.BackupPath, "data", "a.bin"))
	if err != nil || string(backedUp) != "STOCK-V2" {
		t.Errorf("backup=%q,%v want=STOCK-V2,nil (backup should reflect the new stock baseline)", backedUp, err)
	}

	loaded, err := store.LoadAndCheck(workDir)
	if err != nil {
		t.Fatalf("LoadAndCheck failed: %v", err)
	}
	relA, _ := modpath.New("data/a.bin")
	meta := loaded.Mods["pkg"].Files[relA]
	if meta.OriginalHash == nil {
		t.Fatalf("expected original_hash to be refreshed to the new stock baseline")
	}
	wantHash, err := hashutil.HashReader(strings.NewReader("STOCK-V2"))
	if err != nil {
		t.Fatalf("HashReader failed: %v", err)
	}
	if *meta.OriginalHash != wantHash {
		t.Errorf("original_hash=%s want=%s", meta.OriginalHash, wantHash)
	}
}

func TestUpdateFailsOnVersionMismatch(t *testing.T) {
	t.Parallel()

	workDir, _, pkgDir, profile := setupInstalled(t, "1.0.0")

	// Replace the package on disk with a different version, simulating a
	// mod update the user hasn't reconciled with `modman add` yet.
	writeFile(t, filepath.Join(pkgDir, "VERSION.txt"), "2.0.0")

	err := Update(context.Background(), workDir, profile, openerFor(pkgDir), Options{})
	if !errors.Is(err, apperr.ErrVersionMismatch) {
		t.Fatalf("err=%v want ErrVersionMismatch", err)
	}
}

func TestUpdateDryRunDoesNotWrite(t *testing.T) {
	t.Parallel()

	workDir, root, pkgDir, profile := setupInstalled(t, "1.0.0")
	writeFile(t, filepath.Join(root, "data", "a.bin"), "STOCK-V2")

	if err := Update(context.Background(), workDir, profile, openerFor(pkgDir), Options{DryRun: true}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "data", "a.bin"))
	if err != nil || string(got) != "STOCK-V2" {
		t.Errorf("dry run must not touch game files, got %q,%v", got, err)
	}
	backedUp, err := os.ReadFile(filepath.Join(workDir, modpath.BackupPath, "data", "a.bin"))
	if err != nil || string(backedUp) != "AAA" {
		t.Errorf("dry run must not replace the backup, got %q,%v want=AAA,nil", backedUp, err)
	}
}
