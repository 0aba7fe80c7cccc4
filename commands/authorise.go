package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"
)

var AuthoriseCmd = Authorise{}

type Authorise struct {
	command
	force bool
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises sheets-csv to access Google Drive and Google Sheets"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file>"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Authorises sheets-csv to access Google Drive and Google Sheets and caches the OAuth2 tokens in")
	fmt.Println("  the working directory, so that subsequent exports can be run without user interaction (e.g. from")
	fmt.Println("  a cron job)")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %v authorise --credentials "credentials.json"`+"\n", APP)
	fmt.Printf(`    %v authorise --credentials "credentials.json" --force`+"\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("authorise")

	flagset.BoolVar(&cmd.force, "force", cmd.force, "Discards any cached tokens and reauthorises")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	ctx := args[0].(context.Context)
	options := args[1].(*Options)

	cfg, err := load(options)
	if err != nil {
		return err
	}

	cmd.resolve(cfg)

	credential, err := cmd.authorize(ctx, cmd.force)
	if err != nil {
		return err
	}

	if _, err := credential.Token(); err != nil {
		return fmt.Errorf("authorisation error (%v)", err)
	}

	infof("Authorised for %v", strings.Join(credential.Scopes, ", "))

	return nil
}
