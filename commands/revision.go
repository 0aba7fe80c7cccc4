package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uhppoted/sheets-csv/google"
)

// revisions records the last exported revision of each spreadsheet in the working directory.
type revisions struct {
	workdir string
}

func (r revisions) file(spreadsheet string) string {
	return filepath.Join(r.workdir, fmt.Sprintf("%v.revision", spreadsheet))
}

func (r revisions) get(spreadsheet string) (*google.Revision, error) {
	b, err := os.ReadFile(r.file(spreadsheet))
	if err != nil {
		return nil, err
	}

	var revision google.Revision
	if err := json.Unmarshal(b, &revision); err != nil {
		return nil, err
	}

	return &revision, nil
}

func (r revisions) put(spreadsheet string, revision google.Revision) error {
	b, err := json.MarshalIndent(revision, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.workdir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(r.workdir, fmt.Sprintf(".%v.revision-*", spreadsheet))
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	} else if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), r.file(spreadsheet))
}

// unchanged returns true if the revision matches the last exported revision and the target
// directory still exists.
func (r revisions) unchanged(spreadsheet string, revision google.Revision, dir string) bool {
	last, err := r.get(spreadsheet)
	if err != nil {
		debugf("no previous revision for %v (%v)", spreadsheet, err)
		return false
	}

	if _, err := os.Stat(dir); err != nil {
		return false
	}

	return last.ID == revision.ID && last.Modified.Equal(revision.Modified)
}
