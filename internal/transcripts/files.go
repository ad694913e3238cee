// Package transcripts reads the persisted transcript files written by
// the debate backend and builds run summaries and selection
// explanations from them.
package transcripts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/jonathansantilli/freemad/internal/domain"
)

// filePattern matches transcript-YYYYMMDD-HHMMSS.json. Anything else is
// rejected before touching the filesystem.
var filePattern = regexp.MustCompile(`^transcript-\d{8}-\d{6}\.json$`)

// ErrInvalidFilename is returned for names outside the transcript
// naming scheme (including any path traversal attempt).
var ErrInvalidFilename = errors.New("invalid transcript filename")

// ErrNotFound is returned when the named transcript does not exist.
var ErrNotFound = errors.New("run not found")

// RunSummary is one row of the run history listing.
type RunSummary struct {
	File          string             `json:"file"`
	Timestamp     string             `json:"timestamp,omitempty"`
	DisplayTime   string             `json:"display_time,omitempty"`
	FinalAnswerID string             `json:"final_answer_id,omitempty"`
	WinningAgents []string           `json:"winning_agents"`
	Rounds        int                `json:"rounds"`
	Scores        map[string]float64 `json:"scores,omitempty"`
}

// Store lists and loads transcript files from one directory.
type Store struct {
	dir string
}

// NewStore creates the transcripts directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcripts dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the transcripts directory path.
func (s *Store) Dir() string {
	return s.dir
}

// List returns summaries for all transcripts, newest first.
// Unparseable files are skipped rather than failing the listing.
func (s *Store) List() ([]RunSummary, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "transcript-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	summaries := make([]RunSummary, 0, len(matches))
	for _, path := range matches {
		name := filepath.Base(path)
		if !filePattern.MatchString(name) {
			continue
		}
		rec, err := s.Load(name)
		if err != nil {
			continue
		}
		summary := RunSummary{
			File:          name,
			FinalAnswerID: rec.FinalAnswerID,
			WinningAgents: rec.WinningAgents,
			Scores:        rec.Scores,
		}
		if summary.WinningAgents == nil {
			summary.WinningAgents = []string{}
		}
		if n := len(rec.Transcript) - 1; n > 0 {
			summary.Rounds = n
		}
		if ts, ok := parseTimestamp(name); ok {
			summary.Timestamp = ts.Format(time.RFC3339)
			summary.DisplayTime = ts.Format("Jan 02, 2006 15:04:05")
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp > summaries[j].Timestamp
	})
	return summaries, nil
}

// Load parses one transcript record by file name.
func (s *Store) Load(file string) (*domain.TranscriptRecord, error) {
	path, err := s.resolve(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	var rec domain.TranscriptRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	return &rec, nil
}

// Delete removes one transcript file.
func (s *Store) Delete(file string) error {
	path, err := s.resolve(file)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", file, err)
	}
	return nil
}

func (s *Store) resolve(file string) (string, error) {
	if !filePattern.MatchString(file) {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.dir, file), nil
}

// parseTimestamp extracts the timestamp from a transcript file name.
func parseTimestamp(name string) (time.Time, bool) {
	stem := name[len("transcript-") : len(name)-len(".json")]
	ts, err := time.ParseInLocation("20060102-150405", stem, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
