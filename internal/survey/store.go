// Package survey keeps the state that outlives a single tile: the galaxy
// record, the append-only conflicts and flags logs, and backups of both.
package survey

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/plateplan/internal/model"
)

// RecordVersion is written into every record file.
const RecordVersion = "1"

const (
	recordFile    = "record.json"
	conflictsFile = "conflicts.log"
	flagsFile     = "flags.log"
)

// DefaultStateDir returns ~/.plateplan, or .plateplan when there is no home.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".plateplan")
}

// Store is a survey state directory.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at dir. Nothing is created until written.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultStateDir()
	}
	return &Store{Dir: dir}
}

func (s *Store) RecordPath() string    { return filepath.Join(s.Dir, recordFile) }
func (s *Store) ConflictsPath() string { return filepath.Join(s.Dir, conflictsFile) }
func (s *Store) FlagsPath() string     { return filepath.Join(s.Dir, flagsFile) }

// RecordFile is the on-disk form of the galaxy record.
type RecordFile struct {
	Version   string            `json:"version"`
	UpdatedAt string            `json:"updated_at"`
	Tiles     []string          `json:"tiles"` // Tiles already folded into Bundles, oldest first
	Bundles   map[string]string `json:"bundles"`
}

// Record returns the galaxy record held by the file.
func (f *RecordFile) Record() *model.GalaxyRecord {
	rec := model.NewGalaxyRecord()
	for id, b := range f.Bundles {
		rec.Set(id, b)
	}
	return rec
}

// HasTile reports whether tile was already recorded.
func (f *RecordFile) HasTile(tile string) bool {
	for _, t := range f.Tiles {
		if t == tile {
			return true
		}
	}
	return false
}

// LoadRecord reads the record file. A missing file is the start of a survey
// and yields an empty record with no error.
func (s *Store) LoadRecord() (*RecordFile, error) {
	return readRecordFile(s.RecordPath())
}

func readRecordFile(path string) (*RecordFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecordFile{Version: RecordVersion, Tiles: []string{}, Bundles: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var f RecordFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", path, err)
	}
	if f.Version == "" {
		return nil, fmt.Errorf("invalid record file %s: missing version field", path)
	}
	if f.Bundles == nil {
		f.Bundles = map[string]string{}
	}
	if f.Tiles == nil {
		f.Tiles = []string{}
	}
	return &f, nil
}

// SaveRecord writes rec as the state after tile. The file is replaced via a
// temporary file so a crash never leaves a half-written record.
func (s *Store) SaveRecord(rec *model.GalaxyRecord, tile model.Tile) error {
	prev, err := s.LoadRecord()
	if err != nil {
		return err
	}
	f := RecordFile{
		Version:   RecordVersion,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Tiles:     prev.Tiles,
		Bundles:   map[string]string{},
	}
	if !f.HasTile(tile.String()) {
		f.Tiles = append(f.Tiles, tile.String())
	}
	for _, id := range rec.GalaxyIDs() {
		b, _ := rec.Lookup(id)
		f.Bundles[id] = b
	}
	return writeJSON(s.RecordPath(), f)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
