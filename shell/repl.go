// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package shell

import (
	"fmt"
	"io"
)

const Banner = "Probemeister at your service!"

// LineReader is the line editor the shell reads from. *readline.Instance
// satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	SaveHistory(content string) error
}

// Run prints the banner and reads and executes commands until the user
// exits or input ends. The history is loaded before the first prompt and
// saved on the way out; neither failure stops the shell. The session is
// closed before Run returns.
func Run(reader LineReader, session *Session, history *History, out io.Writer) {
	fmt.Fprintln(out, Banner)

	if err := history.Load(); err != nil {
		logger.Debugf("no history loaded from %s: %v", history.Path(), err)
	}

	for _, line := range history.Lines() {
		if err := reader.SaveHistory(line); err != nil {
			logger.Debug("could not replay history entry: ", err)
		}
	}

	for {
		reader.SetPrompt(session.Prompt())

		line, err := reader.Readline()

		if err == nil && history.Add(line) {
			if err := reader.SaveHistory(line); err != nil {
				logger.Debug("could not add history entry: ", err)
			}
		}

		if session.Execute(ParseInput(out, line, err, session.State())) {
			break
		}
	}

	if err := session.Close(); err != nil {
		logger.Warn("could not close probe: ", err)
	}

	if err := history.Save(); err != nil {
		logger.Warnf("could not save history to %s: %v", history.Path(), err)
	}
}
