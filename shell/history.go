// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package shell

import (
	"bufio"
	"os"
	"strings"
)

const DefaultHistoryLimit = 100

// History is the line input log of the shell. It keeps the most recent
// entries in memory and is written back to its file once, on Save.
type History struct {
	path  string
	limit int
	lines []string
}

func NewHistory(path string, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	return &History{path: path, limit: limit}
}

func (h *History) Path() string {
	return h.path
}

// Lines returns the recorded entries, oldest first.
func (h *History) Lines() []string {
	return append([]string(nil), h.lines...)
}

// Load replaces the in-memory entries with the contents of the history file.
func (h *History) Load() error {
	file, err := os.Open(h.path)
	if err != nil {
		return err
	}
	defer file.Close()

	h.lines = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		h.Add(scanner.Text())
	}

	return scanner.Err()
}

// Add records line unless it is blank or repeats the previous entry.
func (h *History) Add(line string) bool {
	line = strings.TrimRight(line, "\r\n")

	if strings.TrimSpace(line) == "" {
		return false
	}

	if n := len(h.lines); n > 0 && h.lines[n-1] == line {
		return false
	}

	h.lines = append(h.lines, line)

	if len(h.lines) > h.limit {
		h.lines = append([]string(nil), h.lines[len(h.lines)-h.limit:]...)
	}

	return true
}

// Save writes all entries to the history file, replacing its contents.
func (h *History) Save() error {
	var b strings.Builder

	for _, line := range h.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return os.WriteFile(h.path, []byte(b.String()), 0644)
}
