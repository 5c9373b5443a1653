package survey

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Logs holds the two append-only side channels of a survey run.
type Logs struct {
	Conflicts *os.File
	Flags     *os.File
}

// OpenLogs opens (creating if needed) the conflicts and flags logs for appending.
func (s *Store) OpenLogs() (*Logs, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	conflicts, err := openAppend(s.ConflictsPath())
	if err != nil {
		return nil, err
	}
	flags, err := openAppend(s.FlagsPath())
	if err != nil {
		conflicts.Close()
		return nil, err
	}
	return &Logs{Conflicts: conflicts, Flags: flags}, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// Close closes both logs.
func (l *Logs) Close() error {
	return errors.Join(l.Conflicts.Close(), l.Flags.Close())
}

// LogEntry is one tab separated line of a survey log.
type LogEntry struct {
	Tile   string
	Fields []string
}

// ReadLog returns the entries of a survey log, oldest first. A missing log
// has no entries.
func ReadLog(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var entries []LogEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		entries = append(entries, LogEntry{Tile: parts[0], Fields: parts[1:]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}
