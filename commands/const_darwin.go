package commands

const (
	_etc = "/usr/local/etc/com.github.uhppoted/sheets-csv"
	_var = "/usr/local/var/com.github.uhppoted/sheets-csv"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
	DEFAULT_CONFIG      = _etc + "/sheets-csv.yaml"
)

var BROWSER = []string{"open"}
