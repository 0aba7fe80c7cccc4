// Package export implements the spreadsheet to CSV export pipeline: run the export script,
// download the archive it creates, delete the remote intermediates and replace the target
// directory with the archive contents.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/uhppoted/sheets-csv/google"
)

const FUNCTION = "SaveSpreadsheetAsZip"

// Transfer downloads and deletes remote artifacts.
type Transfer interface {
	Download(ctx context.Context, id string, file string) (string, error)
	Delete(ctx context.Context, id string) error
}

type Request struct {
	Spreadsheet string
	Dir         string
}

type Result struct {
	Spreadsheet string
	Folder      string
	Archive     string
	Dir         string
	Files       []string
	Bytes       int64
	Duration    time.Duration
}

// Pipeline runs exports with an already authorised script executor and transfer client.
type Pipeline struct {
	Script     google.Executor
	Drive      Transfer
	Deployment string
	Function   string   // defaults to SaveSpreadsheetAsZip
	Strategy   Strategy // defaults to Staged
	TempDir    string   // for the downloaded archive, defaults to os.TempDir()
}

func (rq Request) validate() error {
	if strings.TrimSpace(rq.Spreadsheet) == "" {
		return fmt.Errorf("%w: missing spreadsheet ID", ErrInvalidRequest)
	}

	if strings.TrimSpace(rq.Dir) == "" {
		return fmt.Errorf("%w: missing target directory", ErrInvalidRequest)
	}

	return nil
}

// Run executes one export. The steps are strictly sequential and nothing is retried. A failure
// after the remote archive has been created does not delete the remote folder or archive.
//
// The context is only used for values: remote calls are not cancelled once the run has started.
func (p *Pipeline) Run(ctx context.Context, rq Request) (*Result, error) {
	start := time.Now()
	ctx = context.WithoutCancel(ctx)

	if err := rq.validate(); err != nil {
		return nil, fail(ScriptInvoked, ErrInvalidRequest, err)
	}

	if p.Script == nil || p.Drive == nil {
		return nil, fail(ScriptInvoked, ErrInvalidRequest, fmt.Errorf("%w: pipeline not authorised", ErrInvalidRequest))
	}

	if strings.TrimSpace(p.Deployment) == "" {
		return nil, fail(ScriptInvoked, ErrInvalidRequest, fmt.Errorf("%w: missing script deployment ID", ErrInvalidRequest))
	}

	infof("Running CSV export script for %v", rq.Spreadsheet)

	// ... invoke export script
	result, err := google.Invoke[string](ctx, p.Script, p.Deployment, p.function(), rq.Spreadsheet)
	if err != nil {
		if errors.Is(err, ErrParse) {
			return nil, fail(ResultParsed, ErrParse, err)
		}

		return nil, fail(ScriptInvoked, ErrRemoteExecution, err)
	}

	// ... parse '<folder>::<archive>'
	folder, archive, err := ParseResult(result)
	if err != nil {
		return nil, fail(ResultParsed, ErrParse, err)
	}

	infof("Created folder %v and zip %v", folder, archive)

	// ... download archive
	local, err := p.download(ctx, archive)
	if err != nil {
		warnf("remote folder %v and archive %v have not been deleted", folder, archive)
		return nil, err
	}

	info, err := os.Stat(local)
	if err != nil {
		return nil, fail(Downloaded, ErrLocalIO, err)
	}

	// ... delete remote folder (the archive is deleted locally once extracted)
	if err := p.Drive.Delete(ctx, folder); err != nil {
		warnf("remote folder %v has not been deleted, downloaded archive retained at %v", folder, local)
		return nil, fail(RemoteCleaned, ErrTransfer, err)
	}

	// ... replace target directory
	files, err := Replace(rq.Dir, local, p.Strategy)
	if err != nil {
		return nil, fail(DirectoryReplaced, ErrLocalIO, err)
	}

	debugf("extracted %v files to %v (%v)", len(files), rq.Dir, p.Strategy)

	// ... remove local archive
	if err := os.Remove(local); err != nil {
		return nil, fail(Done, ErrLocalIO, err)
	}

	return &Result{
		Spreadsheet: rq.Spreadsheet,
		Folder:      folder,
		Archive:     archive,
		Dir:         rq.Dir,
		Files:       files,
		Bytes:       info.Size(),
		Duration:    time.Since(start),
	}, nil
}

// download fetches the archive into a newly created (and therefore unique) local file.
func (p *Pipeline) download(ctx context.Context, archive string) (string, error) {
	f, err := os.CreateTemp(p.TempDir, "sheets-*.zip")
	if err != nil {
		return "", fail(Downloaded, ErrLocalIO, err)
	} else if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fail(Downloaded, ErrLocalIO, err)
	}

	local, err := p.Drive.Download(ctx, archive, f.Name())
	if err != nil {
		os.Remove(f.Name())
		return "", fail(Downloaded, ErrTransfer, err)
	}

	return local, nil
}

func (p *Pipeline) function() string {
	if p.Function != "" {
		return p.Function
	}

	return FUNCTION
}
