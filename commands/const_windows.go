package commands

import (
	"os"
	"path/filepath"
)

var (
	DEFAULT_WORKDIR     = filepath.Join(os.Getenv("PROGRAMDATA"), "uhppoted", "sheets-csv")
	DEFAULT_CREDENTIALS = filepath.Join(DEFAULT_WORKDIR, ".google", "credentials.json")
	DEFAULT_CONFIG      = filepath.Join(DEFAULT_WORKDIR, "sheets-csv.yaml")
)

var BROWSER = []string{"rundll32", "url.dll,FileProtocolHandler"}
