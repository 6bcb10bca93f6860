// Package storage persists finished runs on disk. Each run gets its own
// directory with a metadata.json and a diagnostics.csv of the sampled
// energy history.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/gravlab/internal/config"
	"github.com/san-kum/gravlab/internal/diag"
	"github.com/san-kum/gravlab/internal/run"
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
	ID        string             `json:"id"`
	Problem   string             `json:"problem"`
	Scheme    string             `json:"scheme"`
	Timestamp time.Time          `json:"timestamp"`
	N         int                `json:"n"`
	Eps       float64            `json:"eps"`
	Dt        float64            `json:"dt,omitempty"`
	Eta       float64            `json:"eta,omitempty"`
	Duration  float64            `json:"duration"`
	Seed      int64              `json:"seed"`
	Steps     int                `json:"steps"`
	Warnings  []string           `json:"warnings,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

var csvHeader = []string{"time", "kinetic", "potential", "total", "virial"}

func (s *Store) Save(cfg *config.Config, res *run.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", cfg.Problem, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Problem:   cfg.Problem,
		Scheme:    cfg.Scheme,
		Timestamp: time.Now(),
		N:         cfg.N,
		Eps:       cfg.Eps,
		Duration:  cfg.Duration,
		Seed:      cfg.Seed,
		Steps:     res.Steps,
		Warnings:  res.Warnings,
		Metrics:   res.Metrics,
	}
	switch cfg.Scheme {
	case "leapfrog":
		meta.Dt = cfg.Dt
	case "hermite":
		meta.Eta = cfg.Eta
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

	csvFile, err := os.Create(filepath.Join(runDir, "diagnostics.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, sum := range res.Samples {
		row := []string{
			formatFloat(sum.Time),
			formatFloat(sum.Kinetic),
			formatFloat(sum.Potential),
			formatFloat(sum.Total),
			formatFloat(sum.Virial),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 17, 64)
}

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
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadDiagnostics reads a run's sampled energy history back from disk.
func (s *Store) LoadDiagnostics(runID string) ([]diag.Summary, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "diagnostics.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []diag.Summary{}, nil
	}

	sums := make([]diag.Summary, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(csvHeader) {
			continue
		}
		vals := make([]float64, len(record))
		ok := true
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}
		sums = append(sums, diag.Summary{
			Time:      vals[0],
			Kinetic:   vals[1],
			Potential: vals[2],
			Total:     vals[3],
			Virial:    vals[4],
		})
	}
	return sums, nil
}
