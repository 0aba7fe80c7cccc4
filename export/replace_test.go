package export

import (
	"archive/zip"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Error creating zip file (%v)", err)
	}

	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		if fw, err := w.Create(name); err != nil {
			t.Fatalf("Error adding %v to zip file (%v)", name, err)
		} else if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("Error writing %v to zip file (%v)", name, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Error closing zip file (%v)", err)
	}

	return path
}

// contents returns the files under dir as a map of slash separated relative path to content.
func contents(t *testing.T, dir string) map[string]string {
	t.Helper()

	m := map[string]string{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}

			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			m[filepath.ToSlash(rel)] = string(b)
		}

		return nil
	})

	if err != nil {
		t.Fatalf("Error reading directory %v (%v)", dir, err)
	}

	return m
}

func seed(t *testing.T, dir string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Join(dir, "stale"), 0755); err != nil {
		t.Fatalf("%v", err)
	}

	for _, file := range []string{"Old.csv", "stale/Older.csv"} {
		if err := os.WriteFile(filepath.Join(dir, file), []byte("stale"), 0644); err != nil {
			t.Fatalf("%v", err)
		}
	}
}

func TestReplace(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"Dialogue.csv":    "Key,EN\nhello,Hello",
		"Items.csv":       "Key,EN\nsword,Sword",
		"nested/Misc.csv": "Key,EN",
	})

	expected := map[string]string{
		"Dialogue.csv":    "Key,EN\nhello,Hello",
		"Items.csv":       "Key,EN\nsword,Sword",
		"nested/Misc.csv": "Key,EN",
	}

	for _, strategy := range []Strategy{Staged, InPlace} {
		dir := filepath.Join(t.TempDir(), "csv")
		seed(t, dir)

		files, err := Replace(dir, archive, strategy)
		if err != nil {
			t.Fatalf("%v: unexpected error replacing directory (%v)", strategy, err)
		}

		if !reflect.DeepEqual(files, []string{"Dialogue.csv", "Items.csv", "nested/Misc.csv"}) {
			t.Errorf("%v: incorrect file list %v", strategy, files)
		}

		if c := contents(t, dir); !reflect.DeepEqual(c, expected) {
			t.Errorf("%v: incorrect directory contents\n   expected: %v\n   got:      %v", strategy, expected, c)
		}
	}
}

func TestReplaceCreatesDirectory(t *testing.T) {
	archive := writeZip(t, map[string]string{"Sheet1.csv": "a,b"})

	for _, strategy := range []Strategy{Staged, InPlace} {
		dir := filepath.Join(t.TempDir(), "does", "not", "exist")

		if _, err := Replace(dir, archive, strategy); err != nil {
			t.Fatalf("%v: unexpected error replacing directory (%v)", strategy, err)
		}

		if c := contents(t, dir); !reflect.DeepEqual(c, map[string]string{"Sheet1.csv": "a,b"}) {
			t.Errorf("%v: incorrect directory contents %v", strategy, c)
		}
	}
}

func TestStagedReplaceLeavesNoWorkingDirectories(t *testing.T) {
	archive := writeZip(t, map[string]string{"Sheet1.csv": "a,b"})
	parent := t.TempDir()
	dir := filepath.Join(parent, "csv")

	seed(t, dir)

	if _, err := Replace(dir, archive, Staged); err != nil {
		t.Fatalf("Unexpected error replacing directory (%v)", err)
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatalf("%v", err)
	}

	if len(entries) != 1 || entries[0].Name() != "csv" {
		names := []string{}
		for _, e := range entries {
			names = append(names, e.Name())
		}

		t.Errorf("Expected only target directory in parent, got %v", names)
	}
}

func TestReplaceWithInsecurePath(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"Sheet1.csv":     "a,b",
		"../escaped.csv": "evil",
	})

	parent := t.TempDir()
	dir := filepath.Join(parent, "csv")
	seed(t, dir)

	if _, err := Replace(dir, archive, Staged); err == nil {
		t.Fatalf("Expected error extracting archive with path outside target directory")
	}

	if _, err := os.Stat(filepath.Join(parent, "escaped.csv")); !os.IsNotExist(err) {
		t.Errorf("Archive entry extracted outside target directory")
	}

	if c := contents(t, dir); !reflect.DeepEqual(c, map[string]string{"Old.csv": "stale", "stale/Older.csv": "stale"}) {
		t.Errorf("Expected target directory to be unchanged, got %v", c)
	}
}

func TestStagedReplaceWithCorruptArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "archive.zip")
	if err := os.WriteFile(archive, []byte("not a zip file"), 0644); err != nil {
		t.Fatalf("%v", err)
	}

	dir := filepath.Join(t.TempDir(), "csv")
	seed(t, dir)

	if _, err := Replace(dir, archive, Staged); err == nil {
		t.Fatalf("Expected error extracting corrupt archive")
	}

	if c := contents(t, dir); !reflect.DeepEqual(c, map[string]string{"Old.csv": "stale", "stale/Older.csv": "stale"}) {
		t.Errorf("Expected target directory to be unchanged, got %v", c)
	}
}

func TestInPlaceReplaceWithCorruptArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "archive.zip")
	if err := os.WriteFile(archive, []byte("not a zip file"), 0644); err != nil {
		t.Fatalf("%v", err)
	}

	dir := filepath.Join(t.TempDir(), "csv")
	seed(t, dir)

	if _, err := Replace(dir, archive, InPlace); err == nil {
		t.Fatalf("Expected error extracting corrupt archive")
	}

	if c := contents(t, dir); len(c) != 0 {
		t.Errorf("Expected emptied target directory after failed in-place extract, got %v", c)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"":         Staged,
		"staged":   Staged,
		"In-Place": InPlace,
		"inplace":  InPlace,
	}

	for v, expected := range tests {
		if strategy, err := ParseStrategy(v); err != nil {
			t.Errorf("Unexpected error parsing %q (%v)", v, err)
		} else if strategy != expected {
			t.Errorf("Incorrect strategy for %q - expected:%v, got:%v", v, expected, strategy)
		}
	}

	if _, err := ParseStrategy("merge"); err == nil {
		t.Errorf("Expected error for invalid strategy")
	}
}

func TestReplaceWorkingDirectory(t *testing.T) {
	archive := writeZip(t, map[string]string{"Sheet1.csv": "a,b"})

	for _, strategy := range []Strategy{Staged, InPlace} {
		t.Run(strategy.String(), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "csv")
			seed(t, dir)

			t.Chdir(dir)

			files, err := Replace(".", archive, strategy)
			if err != nil {
				t.Fatalf("Unexpected error replacing working directory (%v)", err)
			}

			if !reflect.DeepEqual(files, []string{"Sheet1.csv"}) {
				t.Errorf("Incorrect file list %v", files)
			}

			if c := contents(t, dir); !reflect.DeepEqual(c, map[string]string{"Sheet1.csv": "a,b"}) {
				t.Errorf("Incorrect directory contents %v", c)
			}
		})
	}
}

func TestReplaceSymlinkedDirectory(t *testing.T) {
	archive := writeZip(t, map[string]string{"Sheet1.csv": "a,b"})

	for _, strategy := range []Strategy{Staged, InPlace} {
		parent := t.TempDir()
		target := filepath.Join(parent, "real")
		link := filepath.Join(parent, "csv")

		seed(t, target)

		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symbolic links not supported (%v)", err)
		}

		if _, err := Replace(link, archive, strategy); err != nil {
			t.Fatalf("%v: unexpected error replacing directory (%v)", strategy, err)
		}

		if info, err := os.Lstat(link); err != nil {
			t.Fatalf("%v: %v", strategy, err)
		} else if info.Mode()&os.ModeSymlink == 0 {
			t.Errorf("%v: expected %v to still be a symbolic link", strategy, link)
		}

		if c := contents(t, target); !reflect.DeepEqual(c, map[string]string{"Sheet1.csv": "a,b"}) {
			t.Errorf("%v: incorrect contents of link target %v", strategy, c)
		}
	}
}
