package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/gaitbench/internal/config"
	"github.com/san-kum/gaitbench/internal/experiment"
	"github.com/san-kum/gaitbench/internal/report"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type ExperimentRecord struct {
	Index   int                `json:"index"`
	Label   string             `json:"label"`
	Policy  string             `json:"policy"`
	Status  string             `json:"status"`
	Samples int                `json:"samples,omitempty"`
	Elapsed float64            `json:"elapsed,omitempty"`
	File    string             `json:"file,omitempty"`
	Error   string             `json:"error,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Config      *config.Config     `json:"config"`
	Experiments []ExperimentRecord `json:"experiments"`
}

// Completed counts the experiments that produced a trajectory.
func (m *RunMetadata) Completed() int {
	n := 0
	for _, e := range m.Experiments {
		if e.File != "" {
			n++
		}
	}
	return n
}

// Save writes metadata.json and one trajectory CSV per result under a new
// run directory and returns the run ID. A failed save removes the partial
// run directory.
func (s *Store) Save(cfg *config.Config, ts time.Time, rep *experiment.Report, metrics map[int]map[string]float64) (runID string, err error) {
	runID = fmt.Sprintf("%s_%s", ts.Format("20060102-150405"), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
			runID = ""
		}
	}()

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   ts,
		Config:      cfg,
		Experiments: make([]ExperimentRecord, 0, len(rep.Outcomes)),
	}

	byIndex := make(map[int]experiment.Result, len(rep.Results))
	for _, r := range rep.Results {
		byIndex[r.Index] = r
	}

	for _, o := range rep.Outcomes {
		rec := ExperimentRecord{
			Index:  o.Index,
			Label:  o.Label,
			Policy: o.Policy,
			Status: o.Status.String(),
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		if r, ok := byIndex[o.Index]; ok {
			rec.File = fmt.Sprintf("trajectory_%d.csv", r.Index)
			rec.Samples = len(r.Trajectory)
			rec.Elapsed = r.Elapsed
			rec.Metrics = metrics[r.Index]
			if err := report.WriteTrajectory(filepath.Join(runDir, rec.File), r.Trajectory); err != nil {
				return "", fmt.Errorf("write %s: %w", rec.File, err)
			}
		}
		meta.Experiments = append(meta.Experiments, rec)
	}

	if err := writeMetadata(filepath.Join(runDir, "metadata.json"), &meta); err != nil {
		return "", err
	}
	return runID, nil
}

func writeMetadata(path string, meta *RunMetadata) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns stored runs, newest first. Directories without readable
// metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectories rebuilds the completed results of a stored run.
func (s *Store) LoadTrajectories(runID string) ([]experiment.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	results := make([]experiment.Result, 0, len(meta.Experiments))
	for _, e := range meta.Experiments {
		if e.File == "" {
			continue
		}
		tr, err := report.ReadTrajectory(filepath.Join(s.baseDir, runID, e.File))
		if err != nil {
			return nil, err
		}
		results = append(results, experiment.Result{
			Index:      e.Index,
			Label:      e.Label,
			Policy:     e.Policy,
			Trajectory: tr,
			Elapsed:    e.Elapsed,
			Steps:      len(tr),
		})
	}
	return results, nil
}
