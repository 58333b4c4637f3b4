package swap

import "github.com/btcsuite/btclog"

// log is the package-level logger, following the lnd subsystem-logger
// convention: silent until the host process calls UseLogger.
var log btclog.Logger

func init() {
	UseLogger(btclog.Disabled)
}

// UseLogger sets the package-wide logger used by the swap core.
func UseLogger(logger btclog.Logger) {
	log = logger
}
