package survey

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// BackupVersion is the format version of survey backups.
const BackupVersion = "1.0.0"

// Backup bundles the record and both logs into one portable file.
type Backup struct {
	Version   string     `json:"version"`
	CreatedAt string     `json:"created_at"`
	Record    RecordFile `json:"record"`
	Conflicts []string   `json:"conflicts"`
	Flags     []string   `json:"flags"`
}

// Export writes the whole survey state to path.
func (s *Store) Export(path string) error {
	rec, err := s.LoadRecord()
	if err != nil {
		return err
	}
	conflicts, err := readLines(s.ConflictsPath())
	if err != nil {
		return err
	}
	flags, err := readLines(s.FlagsPath())
	if err != nil {
		return err
	}
	b := Backup{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Record:    *rec,
		Conflicts: conflicts,
		Flags:     flags,
	}
	return writeJSON(path, b)
}

// ReadBackup parses a backup file without applying it.
func ReadBackup(path string) (*Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if b.Version == "" {
		return nil, fmt.Errorf("invalid backup file: missing version field")
	}
	if b.Record.Bundles == nil {
		b.Record.Bundles = map[string]string{}
	}
	if b.Record.Tiles == nil {
		b.Record.Tiles = []string{}
	}
	if b.Record.Version == "" {
		b.Record.Version = RecordVersion
	}
	return &b, nil
}

// Restore replaces the store's record and logs with the backup's contents.
func (s *Store) Restore(b *Backup) error {
	if err := writeJSON(s.RecordPath(), b.Record); err != nil {
		return err
	}
	if err := writeLines(s.ConflictsPath(), b.Conflicts); err != nil {
		return err
	}
	return writeLines(s.FlagsPath(), b.Flags)
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	lines := []string{}
	for _, l := range strings.Split(string(data), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func writeLines(path string, lines []string) error {
	var buf []byte
	for _, l := range lines {
		buf = append(buf, l...)
		buf = append(buf, '\n')
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
