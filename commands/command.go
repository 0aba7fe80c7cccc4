package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/uhppoted/uhppoted-lib/log"

	"github.com/uhppoted/sheets-csv/config"
	"github.com/uhppoted/sheets-csv/export"
	"github.com/uhppoted/sheets-csv/google"
)

const APP = "sheets-csv"
const LOG_TAG = "sheets-csv"

type Options struct {
	Config string
	Debug  bool
}

// command holds the options common to all commands that access Google Drive. Empty values are
// resolved from the configuration file and then from the platform defaults.
type command struct {
	workdir     string
	credentials string
}

func (cmd *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, fmt.Sprintf("Directory for working files (tokens, revisions, etc). Defaults to %v", DEFAULT_WORKDIR))
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, fmt.Sprintf("Path for the 'credentials.json' file. Defaults to %v", DEFAULT_CREDENTIALS))

	return flagset
}

// resolve fills in the unset common options from the configuration file and defaults.
func (cmd *command) resolve(cfg *config.Config) {
	cmd.workdir = coalesce(cmd.workdir, cfg.Workdir, DEFAULT_WORKDIR)
	cmd.credentials = coalesce(cmd.credentials, cfg.Credentials, DEFAULT_CREDENTIALS)
}

// authorize obtains a credential for the export script scopes. Only this step is cancellable.
func (cmd *command) authorize(ctx context.Context, force bool) (*google.Credential, error) {
	if strings.TrimSpace(cmd.credentials) == "" {
		return nil, fmt.Errorf("--credentials is a required option")
	}

	authorizer := google.Authorizer{
		Credentials: cmd.credentials,
		Workdir:     cmd.workdir,
		Browser:     browse,
	}

	var credential *google.Credential
	var err error

	if force {
		credential, err = authorizer.Reauthorize(ctx, google.SCOPES...)
	} else {
		credential, err = authorizer.Authorize(ctx, google.SCOPES...)
	}

	if err != nil {
		return nil, &export.Error{
			Step:  export.Authorized,
			Kind:  export.ErrAuth,
			Cause: err,
		}
	}

	return credential, nil
}

func load(options *Options) (*config.Config, error) {
	if options.Debug {
		log.SetDebug(true)
	}

	cfg, err := config.Load(coalesce(options.Config, DEFAULT_CONFIG))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// spreadsheetID accepts either a spreadsheet ID or a spreadsheet URL, e.g.
// https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit
func spreadsheetID(v string) (string, error) {
	v = strings.TrimSpace(v)

	if strings.HasPrefix(v, "https://") {
		match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(v)
		if len(match) < 2 || match[1] == "" {
			return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
		}

		return match[1], nil
	}

	if !regexp.MustCompile(`^[a-zA-Z0-9_-]+$`).MatchString(v) {
		return "", fmt.Errorf("invalid spreadsheet ID '%v'", v)
	}

	return v, nil
}

func browse(url string) error {
	args := append(append([]string{}, BROWSER[1:]...), url)

	return exec.Command(BROWSER[0], args...).Start()
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

// step returns the name of the pipeline step at which err occurred.
func step(err error) string {
	var e *export.Error
	if errors.As(err, &e) {
		return e.Step.String()
	}

	return export.Idle.String()
}

func helpOptions(flagset *flag.FlagSet) {
	fmt.Println("  Options:")
	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})
}

func debugf(format string, args ...any) {
	log.Debugf(LOG_TAG+"  "+format, args...)
}

func infof(format string, args ...any) {
	log.Infof(LOG_TAG+"  "+format, args...)
}

func warnf(format string, args ...any) {
	log.Warnf(LOG_TAG+"  "+format, args...)
}
