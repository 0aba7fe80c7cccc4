package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"
)

func newDrive(t *testing.T, handler http.HandlerFunc) *Drive {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	d, err := NewDrive(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("Unexpected error creating Drive client (%v)", err)
	}

	return d
}

func TestDownload(t *testing.T) {
	content := "PK\x03\x04 not really a zip file"

	d := newDrive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/files/archive-id" || r.URL.Query().Get("alt") != "media" {
			http.NotFound(w, r)
			return
		}

		fmt.Fprint(w, content)
	})

	file := filepath.Join(t.TempDir(), "archive.zip")

	path, err := d.Download(context.Background(), "archive-id", file)
	if err != nil {
		t.Fatalf("Unexpected error downloading file (%v)", err)
	}

	if path != file {
		t.Errorf("Incorrect download path - expected:%v, got:%v", file, path)
	}

	if b, err := os.ReadFile(path); err != nil {
		t.Fatalf("Error reading downloaded file (%v)", err)
	} else if string(b) != content {
		t.Errorf("Incorrect file content - expected:%q, got:%q", content, string(b))
	}
}

func TestDownloadToTemporaryFile(t *testing.T) {
	d := newDrive(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "zip")
	})

	path, err := d.Download(context.Background(), "archive-id", "")
	if err != nil {
		t.Fatalf("Unexpected error downloading file (%v)", err)
	}

	defer os.Remove(path)

	if !strings.HasPrefix(filepath.Base(path), "sheets-") {
		t.Errorf("Expected temporary file name, got %v", path)
	}

	if b, err := os.ReadFile(path); err != nil || string(b) != "zip" {
		t.Errorf("Incorrect file content %q (%v)", string(b), err)
	}
}

func TestDownloadWithMissingFile(t *testing.T) {
	d := newDrive(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"File not found: archive-id."}}`)
	})

	file := filepath.Join(t.TempDir(), "archive.zip")

	_, err := d.Download(context.Background(), "archive-id", file)
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("Expected ErrTransfer, got %v", err)
	}

	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Errorf("Expected partial download to be removed (%v)", err)
	}
}

func TestDelete(t *testing.T) {
	deleted := []string{}

	d := newDrive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/files/") {
			deleted = append(deleted, strings.TrimPrefix(r.URL.Path, "/files/"))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		http.NotFound(w, r)
	})

	if err := d.Delete(context.Background(), "folder-id"); err != nil {
		t.Fatalf("Unexpected error deleting folder (%v)", err)
	}

	if len(deleted) != 1 || deleted[0] != "folder-id" {
		t.Errorf("Incorrect deleted list - expected:%v, got:%v", []string{"folder-id"}, deleted)
	}
}

func TestDeleteWithError(t *testing.T) {
	d := newDrive(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"The user does not have sufficient permissions for this file."}}`)
	})

	if err := d.Delete(context.Background(), "folder-id"); !errors.Is(err, ErrTransfer) {
		t.Errorf("Expected ErrTransfer, got %v", err)
	}
}

func TestRevision(t *testing.T) {
	d := newDrive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/spreadsheet-id/revisions" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"nextPageToken":"page-2","revisions":[{"id":"101","modifiedTime":"2024-03-01T10:15:00.000Z"},{"id":"105","modifiedTime":"2024-03-05T08:00:00.000Z"}]}`)

		case "page-2":
			fmt.Fprint(w, `{"revisions":[{"id":"103","modifiedTime":"2024-03-03T12:00:00.000Z"}]}`)
		}
	})

	revision, err := d.Revision(context.Background(), "spreadsheet-id")
	if err != nil {
		t.Fatalf("Unexpected error retrieving revision (%v)", err)
	}

	expected := time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)
	if revision.ID != "105" || !revision.Modified.Equal(expected) {
		t.Errorf("Incorrect revision - expected:%v %v, got:%v %v", "105", expected, revision.ID, revision.Modified)
	}
}

func TestRevisionWithNoRevisions(t *testing.T) {
	d := newDrive(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"revisions":[]}`)
	})

	if _, err := d.Revision(context.Background(), "spreadsheet-id"); err == nil {
		t.Errorf("Expected error for spreadsheet without revisions")
	}
}

func TestFolders(t *testing.T) {
	var q string

	d := newDrive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" {
			http.NotFound(w, r)
			return
		}

		q = r.URL.Query().Get("q")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files":[
		  {"id":"f1","name":"_csvfolder_1700000000000","createdTime":"2023-11-14T22:13:20.000Z"},
		  {"id":"f2","name":"old_csvfolder_","createdTime":"2023-11-14T22:13:20.000Z"}
		]}`)
	})

	folders, err := d.Folders(context.Background(), "_csvfolder_")
	if err != nil {
		t.Fatalf("Unexpected error listing folders (%v)", err)
	}

	if len(folders) != 1 || folders[0].ID != "f1" || folders[0].Name != "_csvfolder_1700000000000" {
		t.Errorf("Incorrect folder list: %+v", folders)
	}

	if !strings.Contains(q, "name contains '_csvfolder_'") || !strings.Contains(q, FOLDER_MIME_TYPE) {
		t.Errorf("Incorrect folder query: %v", q)
	}
}
