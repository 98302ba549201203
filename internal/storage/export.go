package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Metadata  RunMetadata `json:"metadata"`
	Solution  []ExportRow `json:"solution"`
	Residuals []float64   `json:"residuals"`
	Changes   []int       `json:"policy_changes"`
}

type ExportRow struct {
	State  int     `json:"s"`
	Action int     `json:"a"`
	Value  float64 `json:"v"`
}

// ExportJSON writes a run's metadata, solution and history as one JSON
// document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	rows, err := s.LoadSolution(runID)
	if err != nil {
		return err
	}
	residuals, changes, err := s.LoadHistory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Metadata:  *meta,
		Solution:  make([]ExportRow, len(rows)),
		Residuals: residuals,
		Changes:   changes,
	}
	for i, r := range rows {
		data.Solution[i] = ExportRow{State: r.State, Action: r.Action, Value: r.Value}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
