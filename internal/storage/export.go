package storage

import (
	"encoding/json"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/glideopt/internal/glide"
)

type ExportData struct {
	Run        RunMetadata   `json:"run"`
	Params     glide.Params  `json:"params"`
	Initial    glide.State   `json:"initial"`
	Lift       []float64     `json:"lift"`
	Steps      int           `json:"steps"`
	Trajectory []glide.State `json:"trajectory"`
}

// ExportJSON writes a run's metadata, policy and trajectory as one
// indented JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	rec, err := s.LoadPolicy(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:        *meta,
		Params:     rec.Params,
		Initial:    rec.Initial,
		Lift:       rec.Policy.Values(),
		Steps:      traj.Len(),
		Trajectory: traj.States,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV writes a run's trajectory with a header row.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	return gocsv.Marshal(traj.States, w)
}
