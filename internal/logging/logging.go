// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger from the configured level.
// PGSCOPE_VERBOSE=1 forces debug logging regardless of the configured level.
func Setup(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if os.Getenv("PGSCOPE_VERBOSE") == "1" {
		lvl = logrus.DebugLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
}
