// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

func parseLevel(level string) (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.WarnLevel, fmt.Errorf("invalid log level: %w", err)
	}

	return lvl, nil
}

// NewLogger creates a logger writing prefixed, timestamped lines to out.
func NewLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	formatter := &prefixed.TextFormatter{
		DisableColors:   false,
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}

	logger := logrus.New()

	logger.SetFormatter(formatter)
	logger.SetOutput(out)
	logger.SetLevel(lvl)

	return logger, nil
}
