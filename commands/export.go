package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/uhppoted/sheets-csv/config"
	"github.com/uhppoted/sheets-csv/export"
	"github.com/uhppoted/sheets-csv/google"
	"github.com/uhppoted/sheets-csv/metrics"
)

var ExportCmd = Export{}

type Export struct {
	command
	deployment  string
	function    string
	spreadsheet string
	url         string
	dir         string
	profile     string
	replace     string
	incremental bool
	local       bool
	metrics     string
}

func (cmd *Export) Name() string {
	return "export"
}

func (cmd *Export) Description() string {
	return "Exports all the worksheets in a Google Sheets spreadsheet as CSV files to a local directory"
}

func (cmd *Export) Usage() string {
	return "--deployment <id> --url <url> --dir <directory>"
}

func (cmd *Export) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] export [options] --url <URL> --dir <directory>\n", APP)
	fmt.Println()
	fmt.Println("  Runs the CSV export Apps Script against a spreadsheet, downloads the zipped CSV files and replaces")
	fmt.Println("  the contents of the target directory with one <worksheet>.csv file per non-empty worksheet.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %v export --credentials "credentials.json" \`+"\n", APP)
	fmt.Println(`                      --deployment "AKfycbx-deployment-id" \`)
	fmt.Println(`                      --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                      --dir "./assets/csv"`)
	fmt.Println()
	fmt.Printf(`    %v --config sheets-csv.yaml export --profile localisation --incremental`+"\n", APP)
	fmt.Println()
}

func (cmd *Export) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("export")

	flagset.StringVar(&cmd.deployment, "deployment", cmd.deployment, "Apps Script deployment ID of the CSV export script")
	flagset.StringVar(&cmd.function, "function", cmd.function, fmt.Sprintf("Export script function. Defaults to %v", export.FUNCTION))
	flagset.StringVar(&cmd.spreadsheet, "spreadsheet", cmd.spreadsheet, "Spreadsheet ID")
	flagset.StringVar(&cmd.url, "url", cmd.url, "Spreadsheet URL (alternative to --spreadsheet)")
	flagset.StringVar(&cmd.dir, "dir", cmd.dir, "Target directory for the CSV files")
	flagset.StringVar(&cmd.profile, "profile", cmd.profile, "Export profile from the configuration file")
	flagset.StringVar(&cmd.replace, "replace", cmd.replace, "Target directory replacement strategy ('staged' or 'in-place'). Defaults to 'staged'")
	flagset.BoolVar(&cmd.incremental, "incremental", cmd.incremental, "Skips the export if the spreadsheet has not changed since the last export")
	flagset.BoolVar(&cmd.local, "local", cmd.local, "Reads the worksheets with the Sheets API instead of running the export script")
	flagset.StringVar(&cmd.metrics, "metrics", cmd.metrics, "Writes the export metrics to a Prometheus textfile")

	return flagset
}

func (cmd *Export) Execute(args ...any) error {
	ctx := args[0].(context.Context)
	options := args[1].(*Options)

	cfg, err := load(options)
	if err != nil {
		return err
	}

	if err := cmd.resolve(cfg); err != nil {
		return err
	}

	spreadsheet, err := spreadsheetID(coalesce(cmd.spreadsheet, cmd.url))
	if err != nil {
		return err
	}

	strategy, err := export.ParseStrategy(cmd.replace)
	if err != nil {
		return err
	}

	debugf("spreadsheet:%v  dir:%v  replace:%v", spreadsheet, cmd.dir, strategy)

	// ... authorise
	credential, err := cmd.authorize(ctx, false)
	if err != nil {
		return err
	}

	gdrive, err := google.NewDrive(ctx, credential.Options()...)
	if err != nil {
		return err
	}

	// ... skip unchanged spreadsheets
	var revision *google.Revision
	r := revisions{workdir: cmd.workdir}

	if cmd.incremental {
		if revision, err = gdrive.Revision(ctx, spreadsheet); err != nil {
			return err
		}

		if r.unchanged(spreadsheet, *revision, cmd.dir) {
			infof("Spreadsheet %v unchanged since revision %v (%v), nothing to export", spreadsheet, revision.ID, revision.Modified.Format(time.RFC3339))
			return nil
		}
	}

	// ... export
	pipeline := export.Pipeline{
		Drive:      gdrive,
		Deployment: cmd.deployment,
		Function:   cmd.function,
		Strategy:   strategy,
	}

	rq := export.Request{
		Spreadsheet: spreadsheet,
		Dir:         cmd.dir,
	}

	start := time.Now()
	result, err := cmd.run(ctx, credential, &pipeline, rq)

	if cmd.metrics != "" {
		m := metrics.NewMetrics(cmd.metrics)
		if err != nil {
			m.Failed(spreadsheet, step(err), time.Since(start))
		} else {
			m.Succeeded(spreadsheet, len(result.Files), result.Bytes, result.Duration)
		}

		if err := m.Write(); err != nil {
			warnf("unable to write metrics to %v (%v)", cmd.metrics, err)
		}
	}

	if err != nil {
		return err
	}

	infof("Exported %v worksheets from %v to %v in %v", len(result.Files), spreadsheet, result.Dir, result.Duration.Round(time.Millisecond))

	if revision != nil {
		if err := r.put(spreadsheet, *revision); err != nil {
			warnf("unable to record revision %v for %v (%v)", revision.ID, spreadsheet, err)
		}
	}

	return nil
}

// resolve fills in the unset options from the export profile and the configuration file.
func (cmd *Export) resolve(cfg *config.Config) error {
	cmd.command.resolve(cfg)

	if cmd.profile != "" {
		p, err := cfg.Profile(cmd.profile)
		if err != nil {
			return err
		}

		if cmd.spreadsheet == "" && cmd.url == "" {
			cmd.spreadsheet = p.Spreadsheet
		}

		cmd.dir = coalesce(cmd.dir, p.Dir)
		cmd.replace = coalesce(cmd.replace, p.Replace)
	}

	cmd.deployment = coalesce(cmd.deployment, cfg.Deployment)
	cmd.function = coalesce(cmd.function, cfg.Function)
	cmd.metrics = coalesce(cmd.metrics, cfg.Metrics)

	if strings.TrimSpace(cmd.spreadsheet) == "" && strings.TrimSpace(cmd.url) == "" {
		return fmt.Errorf("--spreadsheet or --url is a required option")
	}

	if strings.TrimSpace(cmd.dir) == "" {
		return fmt.Errorf("--dir is a required option")
	}

	if !cmd.local && strings.TrimSpace(cmd.deployment) == "" {
		return fmt.Errorf("--deployment is a required option (or use --local)")
	}

	return nil
}

func (cmd *Export) run(ctx context.Context, credential *google.Credential, pipeline *export.Pipeline, rq export.Request) (*export.Result, error) {
	if cmd.local {
		gsheets, err := google.NewSheets(ctx, credential.Options()...)
		if err != nil {
			return nil, err
		}

		return pipeline.Snapshot(ctx, gsheets, rq)
	}

	gscript, err := google.NewScript(ctx, credential.Options()...)
	if err != nil {
		return nil, err
	}

	pipeline.Script = gscript

	return pipeline.Run(ctx, rq)
}
