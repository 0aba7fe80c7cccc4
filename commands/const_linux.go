package commands

const (
	_etc = "/usr/local/etc/sheets-csv"
	_var = "/usr/local/var/sheets-csv"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
	DEFAULT_CONFIG      = _etc + "/sheets-csv.yaml"
)

var BROWSER = []string{"xdg-open"}
