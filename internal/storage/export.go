package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	RunMetadata
	Times        []float64   `json:"times"`
	Observations [][]float64 `json:"observations"`
	Actions      []float64   `json:"actions"`
	Heat         []float64   `json:"heat"`
	Rewards      []float64   `json:"rewards"`
	Dones        []bool      `json:"dones"`
}

// ExportJSON writes a stored run as one JSON document.
func (s *Store) ExportJSON(out io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tr, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata:  *meta,
		Times:        tr.Times,
		Observations: make([][]float64, len(tr.Observations)),
		Actions:      tr.Actions,
		Heat:         tr.Heat,
		Rewards:      tr.Rewards,
		Dones:        tr.Dones,
	}
	for i, o := range tr.Observations {
		data.Observations[i] = o
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV copies the stored trace of runID to out.
func (s *Store) ExportCSV(out io.Writer, runID string) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	f, err := os.Open(s.CSVPath(runID))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(out, f)
	return err
}
