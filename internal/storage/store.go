// Package storage keeps episode traces on disk: one directory per run
// holding metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/tempctrl/internal/config"
	"github.com/san-kum/tempctrl/internal/experiment"
	"github.com/san-kum/tempctrl/internal/gym"
)

var ErrRunNotFound = errors.New("storage: run not found")

var csvHeader = []string{"time", "can_temp", "ambient_temp", "action", "heat", "reward", "done"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Steps     int                `json:"steps"`
	Return    float64            `json:"return"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Trace is an episode read back from states.csv. Row 0 is the reset
// observation and carries no action.
type Trace struct {
	Times        []float64
	Observations []gym.Observation
	Actions      []float64
	Heat         []float64
	Rewards      []float64
	Dones        []bool
}

// Save writes res under a fresh run ID and returns it.
func (s *Store) Save(name string, cfg *config.Config, res *experiment.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", name, uuid.NewString())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: time.Now(),
		Seed:      res.Seed,
		Steps:     res.Steps(),
		Return:    res.Return,
		Config:    cfg,
		Metrics:   res.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, res); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteCSV writes the trace of res in the states.csv layout.
func WriteCSV(out io.Writer, res *experiment.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for i := range res.Observations {
		obs := res.Observations[i]
		row := []string{ff(res.Times[i]), ff(obs[0]), ff(obs[1])}
		if i == 0 {
			row = append(row, "0", "0", "0", "false")
		} else {
			row = append(row,
				ff(res.Actions[i-1]),
				ff(res.Heat[i-1]),
				ff(res.Rewards[i-1]),
				strconv.FormatBool(res.Dones[i-1]),
			)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// CSVPath is the location of a run's trace.
func (s *Store) CSVPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "states.csv")
}

func (s *Store) LoadStates(runID string) (*Trace, error) {
	file, err := os.Open(s.CSVPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(csvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	tr := &Trace{}
	for i, record := range records {
		if i == 0 {
			continue
		}
		vals := make([]float64, 6)
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("run %s row %d: %w", runID, i, err)
			}
		}
		done, err := strconv.ParseBool(record[6])
		if err != nil {
			return nil, fmt.Errorf("run %s row %d: %w", runID, i, err)
		}

		tr.Times = append(tr.Times, vals[0])
		tr.Observations = append(tr.Observations, gym.Observation{vals[1], vals[2]})
		if i == 1 {
			continue
		}
		tr.Actions = append(tr.Actions, vals[3])
		tr.Heat = append(tr.Heat, vals[4])
		tr.Rewards = append(tr.Rewards, vals[5])
		tr.Dones = append(tr.Dones, done)
	}
	return tr, nil
}
