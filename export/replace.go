package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Strategy selects how the target directory is replaced with the archive contents.
type Strategy int

const (
	// Staged extracts to a sibling staging directory and swaps it with the target, leaving the
	// target untouched if extraction fails.
	Staged Strategy = iota

	// InPlace empties the target directory and extracts into it. A failed extraction leaves the
	// directory empty or partially populated.
	InPlace
)

func (s Strategy) String() string {
	switch s {
	case Staged:
		return "staged"
	case InPlace:
		return "in-place"
	default:
		return "unknown"
	}
}

func ParseStrategy(v string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "staged":
		return Staged, nil
	case "in-place", "inplace":
		return InPlace, nil
	default:
		return Staged, fmt.Errorf("invalid replace strategy '%v' - expected 'staged' or 'in-place'", v)
	}
}

// Replace replaces the contents of dir with the contents of the zip archive and returns the
// (slash separated) paths of the extracted files. Any pre-existing content of dir is discarded.
func Replace(dir string, archive string, strategy Strategy) ([]string, error) {
	switch strategy {
	case InPlace:
		return replaceInPlace(dir, archive)

	default:
		return replaceStaged(dir, archive)
	}
}

func replaceInPlace(dir string, archive string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
	}

	return unzip(archive, dir)
}

func replaceStaged(dir string, archive string) ([]string, error) {
	dir, err := resolve(dir)
	if err != nil {
		return nil, err
	}

	parent := filepath.Dir(dir)
	base := filepath.Base(dir)
	mode := os.FileMode(0755)

	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("%v is not a directory", dir)
		}

		mode = info.Mode().Perm()
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp(parent, fmt.Sprintf(".%v.staging-*", base))
	if err != nil {
		return nil, err
	}

	files, err := unzip(archive, staging)
	if err == nil {
		err = os.Chmod(staging, mode)
	}

	if err != nil {
		os.RemoveAll(staging)
		return nil, err
	}

	if err := swap(dir, staging); err != nil {
		os.RemoveAll(staging)
		return nil, err
	}

	return files, nil
}

// resolve returns the absolute path of dir with any symbolic links evaluated, so that the staging
// directory is created beside the real target and the swap replaces the directory rather than a
// link to it (or the relative path '.').
func resolve(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	if path, err := filepath.EvalSymlinks(abs); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return abs, nil
}

// swap replaces dir with staging. The previous directory is moved aside into a private
// directory and restored if the rename of the staging directory fails.
func swap(dir string, staging string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.Rename(staging, dir)
	}

	trash, err := os.MkdirTemp(filepath.Dir(dir), fmt.Sprintf(".%v.old-*", filepath.Base(dir)))
	if err != nil {
		return err
	}

	old := filepath.Join(trash, filepath.Base(dir))
	if err := os.Rename(dir, old); err != nil {
		os.RemoveAll(trash)
		return err
	}

	if err := os.Rename(staging, dir); err != nil {
		if restore := os.Rename(old, dir); restore != nil {
			warnf("unable to restore %v from %v (%v)", dir, old, restore)
		} else {
			os.RemoveAll(trash)
		}

		return err
	}

	if err := os.RemoveAll(trash); err != nil {
		warnf("unable to remove previous contents of %v (%v)", dir, err)
	}

	return nil
}

// unzip extracts the archive into dir, rejecting entries that would be written outside dir.
func unzip(archive string, dir string) ([]string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive (%w)", err)
	}

	defer r.Close()

	files := []string{}
	for _, f := range r.File {
		name := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(name) {
			return nil, fmt.Errorf("invalid path in archive: %s", f.Name)
		}

		target := filepath.Join(dir, name)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, err
			}

			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, err
		}

		if err := extract(f, target); err != nil {
			return nil, fmt.Errorf("failed to extract %v (%w)", f.Name, err)
		}

		files = append(files, filepath.ToSlash(name))
	}

	sort.Strings(files)

	return files, nil
}

func extract(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}

	defer rc.Close()

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
