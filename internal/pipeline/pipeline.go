// Package pipeline fetches a company's facts document, flattens it into the
// requesting user's tables and writes the user's CSV export.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/edgarflat/internal/facts"
	"github.com/ppiankov/edgarflat/internal/model"
)

// Store persists a user's tables and answers the joined view
type Store interface {
	ReplaceFinancials(ctx context.Context, userID string, rows []model.FactRow) error
	ReplaceAttributes(ctx context.Context, userID string, rows []model.AttributeRow) error
	QueryView(ctx context.Context, userID string, labelledOnly bool) ([]model.ViewRow, error)
	RecordRun(ctx context.Context, run model.PipelineRun) error
}

// CompanyFactsSource downloads a companyfacts document
type CompanyFactsSource interface {
	CompanyFacts(ctx context.Context, cik string, user model.User) ([]byte, error)
}

// Pipeline runs one company selection end to end
type Pipeline struct {
	source    CompanyFactsSource
	store     Store
	extractor *facts.Extractor
	exportDir string
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a pipeline. The walk mode comes from cfg.Extract.
func New(cfg *model.Config, source CompanyFactsSource, store Store, logger *zap.Logger) (*Pipeline, error) {
	mode, err := facts.ParseWalkMode(cfg.Extract.WalkMode)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:    source,
		store:     store,
		extractor: facts.NewExtractor(mode),
		exportDir: cfg.Export.Dir,
		logger:    logger.Named("pipeline"),
		now:       time.Now,
	}, nil
}

// RunSummary describes a completed run
type RunSummary struct {
	model.PipelineRun
	ExportPath      string       `json:"export_path"`
	SkippedConcepts []facts.Skip `json:"skipped_concepts"`
}

// Process fetches cik for user and replaces the user's financials, attributes
// and export. Failures before persistence leave earlier tables untouched.
func (p *Pipeline) Process(ctx context.Context, rawCIK string, user model.User) (*RunSummary, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	cik, err := NormalizeCIK(rawCIK)
	if err != nil {
		return nil, err
	}

	started := p.now().UTC()
	log := p.logger.With(zap.String("user", user.ID), zap.String("cik", cik))

	body, err := p.source.CompanyFacts(ctx, cik, user)
	if err != nil {
		log.Warn("fetch companyfacts", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	doc, err := facts.ParseDocument(body)
	if err != nil {
		log.Warn("parse companyfacts", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	if doc.CIK == 0 {
		doc.CIK, _ = strconv.ParseInt(cik, 10, 64)
	}

	financials := p.extractor.Financials(doc)
	if err := p.store.ReplaceFinancials(ctx, user.ID, financials.Rows); err != nil {
		return nil, fmt.Errorf("store financials: %w", err)
	}

	attributes := p.extractor.Attributes(doc)
	if err := p.store.ReplaceAttributes(ctx, user.ID, attributes.Rows); err != nil {
		return nil, fmt.Errorf("store attributes: %w", err)
	}

	view, err := p.store.QueryView(ctx, user.ID, false)
	if err != nil {
		return nil, fmt.Errorf("query view: %w", err)
	}
	exportPath := ExportPath(p.exportDir, user.ID)
	if err := WriteCSVFile(exportPath, view); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	skipped := append(financials.Skipped, attributes.Skipped...)
	for _, s := range skipped {
		log.Debug("concept skipped", zap.String("concept", s.Concept), zap.String("stage", string(s.Stage)), zap.String("reason", string(s.Reason)))
	}

	summary := &RunSummary{
		PipelineRun: model.PipelineRun{
			ID:            uuid.NewString(),
			UserID:        user.ID,
			CIK:           doc.CIK,
			EntityName:    doc.EntityName,
			FactRows:      len(financials.Rows),
			AttributeRows: len(attributes.Rows),
			Skipped:       len(skipped),
			WalkMode:      string(p.extractor.Mode()),
			StartedAt:     started,
			FinishedAt:    p.now().UTC(),
		},
		ExportPath:      exportPath,
		SkippedConcepts: skipped,
	}
	if err := p.store.RecordRun(ctx, summary.PipelineRun); err != nil {
		log.Warn("record run", zap.Error(err))
	}

	log.Info("pipeline complete",
		zap.String("run_id", summary.ID),
		zap.String("entity", doc.EntityName),
		zap.Int("fact_rows", summary.FactRows),
		zap.Int("attribute_rows", summary.AttributeRows),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// Financials returns the user's view, labelled rows only unless all is set
func (p *Pipeline) Financials(ctx context.Context, user model.User, all bool) ([]model.ViewRow, error) {
	if err := model.ValidateUserID(user.ID); err != nil {
		return nil, err
	}
	return p.store.QueryView(ctx, user.ID, !all)
}

// ExportPath is where Process writes user's CSV
func (p *Pipeline) ExportPath(user model.User) string {
	return ExportPath(p.exportDir, user.ID)
}
