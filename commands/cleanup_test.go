package commands

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/uhppoted/sheets-csv/google"
)

type stubFolders struct {
	folders []google.Folder
	fail    map[string]bool
	deleted []string
}

func (s *stubFolders) Folders(ctx context.Context, prefix string) ([]google.Folder, error) {
	return s.folders, nil
}

func (s *stubFolders) Delete(ctx context.Context, id string) error {
	if s.fail[id] {
		return errors.New("googleapi: Error 403: insufficient permissions")
	}

	s.deleted = append(s.deleted, id)

	return nil
}

var leaked = []google.Folder{
	{ID: "folder-1", Name: "_csvfolder_1743439919123"},
	{ID: "folder-2", Name: "_csvfolder_1743440023456"},
	{ID: "folder-3", Name: "_csvfolder_1743440187789"},
}

func TestCleanup(t *testing.T) {
	gdrive := stubFolders{folders: leaked}
	cmd := Cleanup{}

	if err := cmd.cleanup(context.Background(), &gdrive); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if !reflect.DeepEqual(gdrive.deleted, []string{"folder-1", "folder-2", "folder-3"}) {
		t.Errorf("Incorrect deleted folders %v", gdrive.deleted)
	}
}

func TestCleanupWithDryRun(t *testing.T) {
	gdrive := stubFolders{folders: leaked}
	cmd := Cleanup{dryrun: true}

	if err := cmd.cleanup(context.Background(), &gdrive); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if len(gdrive.deleted) != 0 {
		t.Errorf("Expected no folders to be deleted, got %v", gdrive.deleted)
	}
}

func TestCleanupWithDeleteError(t *testing.T) {
	gdrive := stubFolders{folders: leaked, fail: map[string]bool{"folder-2": true}}
	cmd := Cleanup{}

	if err := cmd.cleanup(context.Background(), &gdrive); err == nil {
		t.Errorf("Expected error")
	}

	if !reflect.DeepEqual(gdrive.deleted, []string{"folder-1", "folder-3"}) {
		t.Errorf("Expected remaining folders to be deleted, got %v", gdrive.deleted)
	}
}
