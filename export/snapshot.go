package export

import (
	"context"
	"os"
	"time"

	"github.com/uhppoted/sheets-csv/sheet"
)

// SheetSource retrieves the worksheet values of a spreadsheet.
type SheetSource interface {
	Sheets(ctx context.Context, spreadsheet string) ([]sheet.Sheet, error)
}

// Snapshot exports the spreadsheet without the export script by reading the worksheets directly
// and packing them locally into the same archive layout. The target directory is replaced the
// same way as for Run.
func (p *Pipeline) Snapshot(ctx context.Context, source SheetSource, rq Request) (*Result, error) {
	start := time.Now()
	ctx = context.WithoutCancel(ctx)

	if err := rq.validate(); err != nil {
		return nil, fail(Downloaded, ErrInvalidRequest, err)
	}

	infof("Retrieving worksheets for %v", rq.Spreadsheet)

	sheets, err := source.Sheets(ctx, rq.Spreadsheet)
	if err != nil {
		return nil, fail(Downloaded, ErrTransfer, err)
	}

	f, err := os.CreateTemp(p.TempDir, "sheets-*.zip")
	if err != nil {
		return nil, fail(Downloaded, ErrLocalIO, err)
	}

	local := f.Name()

	if _, err := sheet.Zip(f, sheets); err != nil {
		f.Close()
		os.Remove(local)
		return nil, fail(Downloaded, ErrLocalIO, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(local)
		return nil, fail(Downloaded, ErrLocalIO, err)
	}

	info, err := os.Stat(local)
	if err != nil {
		os.Remove(local)
		return nil, fail(Downloaded, ErrLocalIO, err)
	}

	files, err := Replace(rq.Dir, local, p.Strategy)
	if err != nil {
		os.Remove(local)
		return nil, fail(DirectoryReplaced, ErrLocalIO, err)
	}

	debugf("extracted %v files to %v (%v)", len(files), rq.Dir, p.Strategy)

	if err := os.Remove(local); err != nil {
		return nil, fail(Done, ErrLocalIO, err)
	}

	return &Result{
		Spreadsheet: rq.Spreadsheet,
		Dir:         rq.Dir,
		Files:       files,
		Bytes:       info.Size(),
		Duration:    time.Since(start),
	}, nil
}
