package export

import (
	"github.com/uhppoted/uhppoted-lib/log"
)

const LOG_TAG = "export"

func debugf(format string, args ...any) {
	log.Debugf(LOG_TAG+"  "+format, args...)
}

func infof(format string, args ...any) {
	log.Infof(LOG_TAG+"  "+format, args...)
}

func warnf(format string, args ...any) {
	log.Warnf(LOG_TAG+"  "+format, args...)
}
