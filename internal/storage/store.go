// Package storage keeps finished optimization runs on disk.
//
// Each run lives in its own directory under the store's base directory:
//
//	metadata.json       run summary and the configuration it used
//	trajectory.csv      the best trajectory, one row per step
//	policy.msgpack.zst  the best policy with its physical parameters
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/san-kum/glideopt/internal/config"
	"github.com/san-kum/glideopt/internal/glide"
	"github.com/san-kum/glideopt/internal/policy"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	policyFile     = "policy.msgpack.zst"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Objective   string            `json:"objective"`
	Score       Float             `json:"score"`
	Seed        int64             `json:"seed"`
	Generations int               `json:"generations"`
	Evaluations int               `json:"evaluations"`
	Canceled    bool              `json:"canceled"`
	Elapsed     float64           `json:"elapsed_seconds"`
	Samples     int               `json:"samples"`
	End         glide.Termination `json:"end"`
	History     []Float           `json:"history,omitempty"`
	Config      *config.Config    `json:"config,omitempty"`
}

// PolicyRecord is everything needed to replay a run's best policy.
type PolicyRecord struct {
	Policy  policy.Policy `msgpack:"policy"`
	Params  glide.Params  `msgpack:"params"`
	Initial glide.State   `msgpack:"initial"`
}

func newRunID(now time.Time) string {
	return now.UTC().Format("20060102-150405") + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// Save writes a new run and returns its ID. meta.ID, meta.Timestamp,
// meta.Samples and meta.End are filled in by Save.
func (s *Store) Save(meta RunMetadata, traj glide.Trajectory, rec PolicyRecord) (string, error) {
	now := time.Now()
	meta.ID = newRunID(now)
	meta.Timestamp = now
	meta.Samples = rec.Policy.Len()
	meta.End = traj.End

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), traj.States); err != nil {
		return "", err
	}
	if err := writePolicy(filepath.Join(runDir, policyFile), rec); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func writeTrajectory(path string, states []glide.State) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.Marshal(states, f); err != nil {
		return fmt.Errorf("storage: writing trajectory: %w", err)
	}
	return f.Close()
}

func writePolicy(path string, rec PolicyRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("storage: creating zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(rec); err != nil {
		return fmt.Errorf("storage: encoding policy: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("storage: closing zstd writer: %w", err)
	}
	return f.Close()
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return runs, nil
}

// open opens a file of a run, mapping a missing run to ErrRunNotFound.
func (s *Store) open(runID, name string) (*os.File, error) {
	if runID == "" || runID != filepath.Base(runID) || strings.HasPrefix(runID, ".") {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return f, err
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	f, err := s.open(runID, metadataFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var meta RunMetadata
	if err := json.NewDecoder(f).Decode(&meta); err != nil {
		return nil, fmt.Errorf("storage: reading %s metadata: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (glide.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return glide.Trajectory{}, err
	}
	f, err := s.open(runID, trajectoryFile)
	if err != nil {
		return glide.Trajectory{}, err
	}
	defer f.Close()

	var states []glide.State
	if err := gocsv.UnmarshalFile(f, &states); err != nil {
		return glide.Trajectory{}, fmt.Errorf("storage: reading %s trajectory: %w", runID, err)
	}
	return glide.Trajectory{States: states, End: meta.End}, nil
}

func (s *Store) LoadPolicy(runID string) (*PolicyRecord, error) {
	f, err := s.open(runID, policyFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("storage: creating zstd reader: %w", err)
	}
	defer zr.Close()

	var rec PolicyRecord
	if err := msgpack.NewDecoder(zr).Decode(&rec); err != nil {
		return nil, fmt.Errorf("storage: decoding %s policy: %w", runID, err)
	}
	return &rec, nil
}
