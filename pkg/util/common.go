package util

import (
	"io"
	"log/slog"
)

// CloseFunc closes c and logs the error, for use in defer.
func CloseFunc(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		slog.Error("close "+what, "err", err)
	}
}
