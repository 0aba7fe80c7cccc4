package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/uhppoted/sheets-csv/google"
)

// FOLDER_PREFIX is the name prefix of the intermediate Drive folders created by the export script.
const FOLDER_PREFIX = "_csvfolder_"

var CleanupCmd = Cleanup{}

type Cleanup struct {
	command
	dryrun bool
}

type folders interface {
	Folders(ctx context.Context, prefix string) ([]google.Folder, error)
	Delete(ctx context.Context, id string) error
}

func (cmd *Cleanup) Name() string {
	return "cleanup"
}

func (cmd *Cleanup) Description() string {
	return "Deletes the intermediate Google Drive folders left behind by failed exports"
}

func (cmd *Cleanup) Usage() string {
	return "[--dryrun]"
}

func (cmd *Cleanup) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] cleanup [options]\n", APP)
	fmt.Println()
	fmt.Printf("  Lists and deletes the '%v...' folders in Google Drive that were created by the export script\n", FOLDER_PREFIX)
	fmt.Println("  but not deleted because the export failed")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %v cleanup --credentials "credentials.json" --dryrun`+"\n", APP)
	fmt.Println()
}

func (cmd *Cleanup) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("cleanup")

	flagset.BoolVar(&cmd.dryrun, "dryrun", cmd.dryrun, "Lists the folders without deleting them")

	return flagset
}

func (cmd *Cleanup) Execute(args ...any) error {
	ctx := args[0].(context.Context)
	options := args[1].(*Options)

	cfg, err := load(options)
	if err != nil {
		return err
	}

	cmd.resolve(cfg)

	credential, err := cmd.authorize(ctx, false)
	if err != nil {
		return err
	}

	gdrive, err := google.NewDrive(ctx, credential.Options()...)
	if err != nil {
		return err
	}

	return cmd.cleanup(context.WithoutCancel(ctx), gdrive)
}

func (cmd *Cleanup) cleanup(ctx context.Context, gdrive folders) error {
	list, err := gdrive.Folders(ctx, FOLDER_PREFIX)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		infof("No export folders to clean up")
		return nil
	}

	var errs []error
	for _, f := range list {
		if cmd.dryrun {
			fmt.Printf("  %-24v  %v  %v\n", f.Name, f.Created.Format(time.RFC3339), f.ID)
			continue
		}

		if err := gdrive.Delete(ctx, f.ID); err != nil {
			warnf("%v", err)
			errs = append(errs, err)
		} else {
			infof("Deleted %v (%v)", f.Name, f.ID)
		}
	}

	return errors.Join(errs...)
}
