package asyncq

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerMu sync.RWMutex
	logger   = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.Disabled)
)

// SetLogger replaces the package-level logger. The default logger is
// disabled: asyncq stays silent unless a host application opts in.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func log() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}
