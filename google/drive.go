package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const FOLDER_MIME_TYPE = "application/vnd.google-apps.folder"

type Drive struct {
	service *drive.Service
}

type Revision struct {
	ID       string    `json:"revision"`
	Modified time.Time `json:"modified"`
}

type Folder struct {
	ID      string
	Name    string
	Created time.Time
}

func NewDrive(ctx context.Context, opts ...option.ClientOption) (*Drive, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Google Drive client (%v)", err)
	}

	return &Drive{
		service: service,
	}, nil
}

// Download streams the content of a Drive file to a local file. If file is empty a new
// temporary file is created in the default temporary directory. The local file is removed
// if the transfer fails.
func (d *Drive) Download(ctx context.Context, id string, file string) (string, error) {
	var f *os.File
	var err error

	if file == "" {
		f, err = os.CreateTemp("", "sheets-*.zip")
	} else {
		f, err = os.Create(file)
	}

	if err != nil {
		return "", fmt.Errorf("%w: unable to create local file (%v)", ErrTransfer, err)
	}

	N, err := d.download(ctx, id, f)

	if err != nil {
		infof("Download complete with status %v", status(err))
	} else {
		infof("Download complete with status %v (%v bytes)", status(err), N)
	}

	if err != nil {
		f.Close()
		os.Remove(f.Name())

		return "", fmt.Errorf("%w: download %v (%v)", ErrTransfer, id, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())

		return "", fmt.Errorf("%w: download %v (%v)", ErrTransfer, id, err)
	}

	return f.Name(), nil
}

func (d *Drive) download(ctx context.Context, id string, f *os.File) (int64, error) {
	response, err := d.service.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return 0, err
	}

	defer response.Body.Close()

	N, err := io.Copy(f, response.Body)
	if err != nil {
		return N, err
	}

	return N, f.Sync()
}

// Delete removes a Drive file or folder. Deleting a folder bypasses the trash and removes
// the files it contains.
func (d *Drive) Delete(ctx context.Context, id string) error {
	if err := d.service.Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: delete %v (%v)", ErrTransfer, id, err)
	}

	debugf("deleted %v", id)

	return nil
}

// Revision returns the most recent revision of a Drive file.
func (d *Drive) Revision(ctx context.Context, id string) (*Revision, error) {
	page := ""
	latest := Revision{}

	for {
		call := d.service.Revisions.List(id).Fields("nextPageToken", "revisions(id,modifiedTime)").Context(ctx)
		if page != "" {
			call.PageToken(page)
		}

		revisions, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("%w: list revisions for %v (%v)", ErrTransfer, id, err)
		}

		for _, revision := range revisions.Revisions {
			datetime, err := time.Parse(time.RFC3339, revision.ModifiedTime)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid revision timestamp %q (%v)", ErrParse, revision.ModifiedTime, err)
			}

			if latest.Modified.Before(datetime) {
				latest.ID = revision.Id
				latest.Modified = datetime
			}
		}

		if page = revisions.NextPageToken; page == "" {
			break
		}
	}

	if latest.Modified.IsZero() {
		return nil, fmt.Errorf("unable to identify latest revision for file ID %s", id)
	}

	return &latest, nil
}

// Folders lists the (untrashed) folders owned by the user with names starting with prefix.
func (d *Drive) Folders(ctx context.Context, prefix string) ([]Folder, error) {
	q := fmt.Sprintf("mimeType = '%v' and name contains '%v' and trashed = false", FOLDER_MIME_TYPE, quote(prefix))
	page := ""
	folders := []Folder{}

	for {
		call := d.service.Files.List().Q(q).Fields("nextPageToken", "files(id,name,createdTime)").Context(ctx)
		if page != "" {
			call.PageToken(page)
		}

		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("%w: list folders (%v)", ErrTransfer, err)
		}

		for _, f := range list.Files {
			if !strings.HasPrefix(f.Name, prefix) {
				continue
			}

			created, _ := time.Parse(time.RFC3339, f.CreatedTime)
			folders = append(folders, Folder{
				ID:      f.Id,
				Name:    f.Name,
				Created: created,
			})
		}

		if page = list.NextPageToken; page == "" {
			break
		}
	}

	return folders, nil
}

// status formats a transfer outcome for the diagnostic log.
func status(err error) string {
	var e *googleapi.Error

	switch {
	case err == nil:
		return "OK"

	case errors.As(err, &e):
		return fmt.Sprintf("%v (%v)", e.Code, strings.TrimSpace(e.Message))

	default:
		return fmt.Sprintf("failed (%v)", err)
	}
}

func quote(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}
