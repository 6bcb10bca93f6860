// Package export writes a complete run as a single JSON document, for
// plotting pipelines outside this tool.
package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/config"
	"github.com/san-kum/gravlab/internal/diag"
	"github.com/san-kum/gravlab/internal/run"
)

type ExportData struct {
	Problem     string             `json:"problem"`
	Scheme      string             `json:"scheme"`
	N           int                `json:"n"`
	Eps         float64            `json:"eps"`
	Dt          float64            `json:"dt,omitempty"`
	Eta         float64            `json:"eta,omitempty"`
	Duration    float64            `json:"duration"`
	Seed        int64              `json:"seed"`
	Steps       int                `json:"steps"`
	Diagnostics []diag.Summary     `json:"diagnostics"`
	Metrics     map[string]float64 `json:"metrics"`
	Warnings    []string           `json:"warnings,omitempty"`
	Final       *FinalState        `json:"final,omitempty"`
}

// FinalState is the synchronized end-of-run particle state.
type FinalState struct {
	Time float64      `json:"time"`
	Mass []float64    `json:"mass"`
	Pos  [][3]float64 `json:"pos"`
	Vel  [][3]float64 `json:"vel"`
}

func build(cfg *config.Config, res *run.Result) ExportData {
	data := ExportData{
		Problem:     cfg.Problem,
		Scheme:      cfg.Scheme,
		N:           cfg.N,
		Eps:         cfg.Eps,
		Duration:    cfg.Duration,
		Seed:        cfg.Seed,
		Steps:       res.Steps,
		Diagnostics: res.Samples,
		Metrics:     res.Metrics,
		Warnings:    res.Warnings,
	}
	switch cfg.Scheme {
	case "leapfrog":
		data.Dt = cfg.Dt
	case "hermite":
		data.Eta = cfg.Eta
	}
	if res.Final != nil {
		data.Final = finalState(res.Final)
	}
	return data
}

func finalState(snap *body.Snapshot) *FinalState {
	n := snap.N()
	fs := &FinalState{
		Time: snap.Time,
		Mass: append([]float64(nil), snap.Mass...),
		Pos:  make([][3]float64, n),
		Vel:  make([][3]float64, n),
	}
	for i := 0; i < n; i++ {
		fs.Pos[i] = [3]float64{snap.Pos[i].X, snap.Pos[i].Y, snap.Pos[i].Z}
		fs.Vel[i] = [3]float64{snap.Vel[i].X, snap.Vel[i].Y, snap.Vel[i].Z}
	}
	return fs
}

func JSON(w io.Writer, cfg *config.Config, res *run.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(build(cfg, res))
}

func JSONFile(path string, cfg *config.Config, res *run.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return JSON(file, cfg, res)
}
