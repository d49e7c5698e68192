package agent

import (
	"log/slog"

	"github.com/wegiclabs/contentpipe/internal/log"
)

func testLogger() *slog.Logger {
	return log.NewNop()
}
