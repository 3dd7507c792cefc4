package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/propforma/underwrite/internal/deal"
)

// Pipeline is the analysis engine contract. The real engine lives outside this
// repository; implementations here only need to honour the stage order the
// runner drives.
type Pipeline interface {
	Research(ctx context.Context, d deal.Inputs) (map[string]any, error)
	BuildProForma(ctx context.Context, d deal.Inputs) (map[string]any, error)
	GenerateExcel(ctx context.Context, proForma, market map[string]any, jobID string) (string, error)
	GenerateWord(ctx context.Context, proForma, market map[string]any, jobID string) (string, error)
}

// Runner executes jobs against a Pipeline, advancing the store's status as
// each stage begins.
type Runner struct {
	log      *zap.SugaredLogger
	store    *Store
	pipeline Pipeline
}

// NewRunner wires a runner to its store and pipeline.
func NewRunner(log *zap.SugaredLogger, store *Store, pipeline Pipeline) *Runner {
	return &Runner{log: log, store: store, pipeline: pipeline}
}

// Start executes the job in the background.
func (r *Runner) Start(ctx context.Context, jobID string, d deal.Inputs) {
	go r.Run(ctx, jobID, d)
}

// Run walks the full pipeline for one job, blocking until it completes or
// fails. Any stage error marks the job errored with the stage's message.
func (r *Runner) Run(ctx context.Context, jobID string, d deal.Inputs) {
	r.store.SetStatus(jobID, StatusResearching)
	r.log.Infow("market research", "job", jobID, "address", d.Address)
	market, err := r.pipeline.Research(ctx, d)
	if err != nil {
		r.fail(jobID, "market research", err)
		return
	}

	r.store.SetStatus(jobID, StatusModeling)
	r.log.Infow("building financial model", "job", jobID)
	proForma, err := r.pipeline.BuildProForma(ctx, d)
	if err != nil {
		r.fail(jobID, "financial model", err)
		return
	}

	r.store.SetStatus(jobID, StatusGeneratingExcel)
	r.log.Infow("generating excel", "job", jobID)
	excelPath, err := r.pipeline.GenerateExcel(ctx, proForma, market, jobID)
	if err != nil {
		r.fail(jobID, "excel generation", err)
		return
	}

	r.store.SetStatus(jobID, StatusGeneratingWord)
	r.log.Infow("generating word memo", "job", jobID)
	wordPath, err := r.pipeline.GenerateWord(ctx, proForma, market, jobID)
	if err != nil {
		r.fail(jobID, "word generation", err)
		return
	}

	r.store.Complete(jobID, proForma, market, excelPath, wordPath)
	r.log.Infow("analysis complete", "job", jobID)
}

func (r *Runner) fail(jobID, stage string, err error) {
	r.log.Errorw("analysis failed", "job", jobID, "stage", stage, "error", err)
	r.store.Fail(jobID, fmt.Sprintf("%s: %v", stage, err))
}

// StubPipeline produces placeholder artifacts so the serving surface can be
// exercised end to end without the underwriting engine.
type StubPipeline struct {
	OutputDir string
}

func (p StubPipeline) Research(ctx context.Context, d deal.Inputs) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return map[string]any{
		"asset_type": d.PropertyType,
		"address":    d.Address,
	}, nil
}

func (p StubPipeline) BuildProForma(ctx context.Context, d deal.Inputs) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	capRate := 0.0
	if d.PurchasePrice > 0 {
		capRate = d.CurrentNOI / d.PurchasePrice
	}
	return map[string]any{
		"purchase_price":    d.PurchasePrice,
		"going_in_cap_rate": capRate,
		"hold_period_years": d.HoldPeriodYears,
		"total_units":       d.TotalUnits,
	}, nil
}

func (p StubPipeline) GenerateExcel(ctx context.Context, proForma, market map[string]any, jobID string) (string, error) {
	return p.writeArtifact(ctx, jobID, "underwriting_%s.xlsx")
}

func (p StubPipeline) GenerateWord(ctx context.Context, proForma, market map[string]any, jobID string) (string, error) {
	return p.writeArtifact(ctx, jobID, "investment_memo_%s.docx")
}

func (p StubPipeline) writeArtifact(ctx context.Context, jobID, pattern string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.OutputDir == "" {
		return "", fmt.Errorf("jobs: output directory is not configured")
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("jobs: create output dir: %w", err)
	}
	path := filepath.Join(p.OutputDir, fmt.Sprintf(pattern, jobID))
	if err := os.WriteFile(path, []byte("placeholder artifact for job "+jobID+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("jobs: write artifact: %w", err)
	}
	return path, nil
}
