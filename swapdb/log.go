package swapdb

import "github.com/btcsuite/btclog"

// log is the package-level logger, following the lnd subsystem-logger
// convention used throughout this codebase: silent until the host process
// calls UseLogger.
var log btclog.Logger

func init() {
	UseLogger(btclog.Disabled)
}

// UseLogger sets the package-wide logger used by swapdb.
func UseLogger(logger btclog.Logger) {
	log = logger
}
