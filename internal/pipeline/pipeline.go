// Package pipeline drives each discovered filing through classification,
// OCR, text cleanup, extraction, linking, and storage. Documents fail
// individually; a recorded failure never stops the rest of a run.
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/boardwatch/filings-cli/internal/classify"
	"github.com/boardwatch/filings-cli/internal/extract"
	"github.com/boardwatch/filings-cli/internal/linking"
	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/normalize"
	"github.com/boardwatch/filings-cli/internal/ocr"
	"github.com/boardwatch/filings-cli/internal/resilience"
	"github.com/boardwatch/filings-cli/internal/store"
)

// Extractor is the LLM capability the pipeline depends on.
type Extractor interface {
	ExtractComplaint(ctx context.Context, meta extract.Metadata, text string) (*model.ComplaintFacts, *model.ExtractionVersion, error)
	ExtractSettlement(ctx context.Context, meta extract.Metadata, text string) (*model.SettlementFacts, *model.ExtractionVersion, error)
	CompareAmendment(ctx context.Context, originalText, amendedText string) (string, error)
}

// Options are the per-run knobs.
type Options struct {
	// WorkDir receives OCR outputs; empty means next to the input PDF.
	WorkDir string
	// OcrWorkers bounds the OCR pool in Batch.
	OcrWorkers int
	// SkipOcr reads text from TextPath instead of running OCR.
	SkipOcr bool
	// DryRun stops each document after cleanup, before extraction and
	// any write.
	DryRun bool
	// Force reprocesses documents that already have a stored extraction.
	Force bool
	// RateLimitPause is the fallback pause when the backend rate limits
	// without a retry-after hint.
	RateLimitPause time.Duration
}

// Outcome is the terminal state of one document in a run.
type Outcome struct {
	SourceURL string
	Kind      classify.Kind
	Status    model.DocStatus
	Skipped   bool
	Failure   model.FailureKind
	Err       error
}

// Pipeline orchestrates the per-document state machine.
type Pipeline struct {
	store      store.Store
	classifier *classify.Classifier
	runner     ocr.Runner
	extractor  Extractor
	resolver   *linking.Resolver
	opts       Options
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a Pipeline with all dependencies.
func New(
	st store.Store,
	classifier *classify.Classifier,
	runner ocr.Runner,
	extractor Extractor,
	resolver *linking.Resolver,
	opts Options,
) *Pipeline {
	if opts.OcrWorkers <= 0 {
		opts.OcrWorkers = 2
	}
	if opts.RateLimitPause <= 0 {
		opts.RateLimitPause = time.Minute
	}
	return &Pipeline{
		store:      st,
		classifier: classifier,
		runner:     runner,
		extractor:  extractor,
		resolver:   resolver,
		opts:       opts,
		sleep:      sleepCtx,
	}
}

// docWork is one document in flight: the filing, its classification, and
// the cleaned text once OCR has run.
type docWork struct {
	filing *model.Filing
	class  classify.Result
	text   string
	out    *Outcome
}

func (w *docWork) meta() extract.Metadata {
	f := w.filing
	date := ""
	if !f.FilingDate.IsZero() {
		date = f.FilingDate.Format("2006-01-02")
	}
	return extract.Metadata{
		Title:      f.Title,
		Respondent: f.Respondent,
		CaseNumber: f.CaseNumber,
		Date:       date,
		DocType:    f.DocType,
	}
}

// stageError attributes an extraction failure to a pipeline stage so it can
// be recorded against the document.
type stageError struct {
	stage model.Stage
	kind  model.FailureKind
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// Process runs one filing through the whole state machine. The Outcome
// carries the terminal status; a non-nil error means the store itself is
// unusable, not that the document failed.
func (p *Pipeline) Process(ctx context.Context, f *model.Filing) (*Outcome, error) {
	w, out, err := p.prepare(ctx, f)
	if err != nil || w == nil {
		return out, err
	}
	if err := p.runOcr(ctx, w); err != nil {
		return p.fail(ctx, w, model.StageOcr, ocrFailureKind(err), err), nil
	}
	return p.finish(ctx, w)
}

// prepare normalizes the filing, classifies it, and applies the
// reprocessing policy. A nil docWork means the document is done: either
// ignored or skipped.
func (p *Pipeline) prepare(ctx context.Context, f *model.Filing) (*docWork, *Outcome, error) {
	Intake(f)
	out := &Outcome{SourceURL: f.SourceURL, Status: f.Status}

	class := p.classifier.Classify(f.DocType, f.CaseNumber)
	out.Kind = class.Kind

	if class.Kind == classify.KindIgnored {
		if err := p.park(ctx, f); err != nil {
			return nil, nil, err
		}
		out.Status = model.StatusIgnored
		out.Failure = model.FailClassificationUnknown
		return nil, out, nil
	}

	done, err := p.alreadyProcessed(ctx, f, class)
	if err != nil {
		return nil, nil, err
	}
	if done && !p.opts.Force {
		out.Skipped = true
		out.Status = model.StatusStored
		zap.L().Debug("pipeline: already processed, skipping",
			zap.String("source_url", f.SourceURL),
			zap.String("case_number", f.CaseNumber),
		)
		return nil, out, nil
	}

	f.Status = model.StatusClassified
	return &docWork{filing: f, class: class, out: out}, out, nil
}

// park stores an unclassifiable filing as ignored and records the failure
// so the gaps report surfaces it. The filing stays available for
// reclassification once the type lists grow.
func (p *Pipeline) park(ctx context.Context, f *model.Filing) error {
	zap.L().Info("pipeline: filing ignored",
		zap.String("source_url", f.SourceURL),
		zap.String("doc_type", f.DocType),
	)
	f.Status = model.StatusIgnored
	if p.opts.DryRun {
		return nil
	}
	if err := p.store.UpsertFiling(ctx, f); err != nil {
		return eris.Wrap(err, "pipeline: park ignored filing")
	}
	rec := &model.FailureRecord{
		SourceURL:  f.SourceURL,
		CaseNumber: f.CaseNumber,
		Stage:      model.StageClassify,
		Kind:       model.FailClassificationUnknown,
		Reason:     "unrecognized document type: " + f.DocType,
		OccurredAt: time.Now().UTC(),
	}
	if err := p.store.RecordFailure(ctx, rec); err != nil {
		return eris.Wrap(err, "pipeline: record classification failure")
	}
	return nil
}

// alreadyProcessed reports whether the document's terminal record exists
// with an extraction attached, or with OCR marked failed; both mean a
// re-run has nothing new to add without force.
func (p *Pipeline) alreadyProcessed(ctx context.Context, f *model.Filing, class classify.Result) (bool, error) {
	switch class.Kind {
	case classify.KindComplaint:
		c, err := p.store.GetComplaint(ctx, f.CaseNumber)
		if err != nil {
			return false, eris.Wrap(err, "pipeline: look up complaint")
		}
		return c != nil && (c.Extraction != nil || c.OCRFailed), nil
	case classify.KindSettlement:
		s, err := p.store.GetSettlement(ctx, f.SourceURL)
		if err != nil {
			return false, eris.Wrap(err, "pipeline: look up settlement")
		}
		return s != nil && (s.Extraction != nil || s.OCRFailed), nil
	case classify.KindLicenseOnly:
		existing, err := p.store.GetFiling(ctx, f.SourceURL)
		if err != nil {
			return false, eris.Wrap(err, "pipeline: look up filing")
		}
		return existing != nil && existing.Status == model.StatusStored, nil
	}
	return false, nil
}

// runOcr produces the document's text, either from an existing sidecar
// file or by running OCR under its page-derived timeout.
func (p *Pipeline) runOcr(ctx context.Context, w *docWork) error {
	f := w.filing
	if p.opts.SkipOcr || f.PDFPath == "" || f.TextPath != "" {
		return p.loadText(w)
	}

	f.Status = model.StatusOcrPending
	outPDF, outText := p.outputPaths(f)
	res, err := p.runner.Run(ctx, f.PDFPath, outPDF, outText)
	if err != nil {
		return err
	}
	f.Status = model.StatusOcrDone
	f.TextPath = res.TextPath
	f.PageCount = res.Pages
	w.text = res.Text
	return nil
}

// loadText reads previously produced sidecar text instead of re-running
// OCR.
func (p *Pipeline) loadText(w *docWork) error {
	f := w.filing
	if f.TextPath == "" {
		return &ocr.ToolError{Path: f.PDFPath, Stderr: "no text available and ocr skipped"}
	}
	b, err := os.ReadFile(f.TextPath)
	if err != nil {
		return &ocr.ToolError{Path: f.TextPath, Stderr: "sidecar text unreadable", Err: err}
	}
	w.text = string(b)
	f.Status = model.StatusOcrDone
	return nil
}

func (p *Pipeline) outputPaths(f *model.Filing) (outPDF, outText string) {
	base := strings.TrimSuffix(filepath.Base(f.PDFPath), filepath.Ext(f.PDFPath))
	dir := p.opts.WorkDir
	if dir == "" {
		dir = filepath.Dir(f.PDFPath)
	}
	return filepath.Join(dir, base+".ocr.pdf"), filepath.Join(dir, base+".txt")
}

func ocrFailureKind(err error) model.FailureKind {
	if ocr.IsTimeout(err) {
		return model.FailOcrTimeout
	}
	return model.FailOcrTool
}

// finish takes a document with raw text through cleanup, extraction,
// linking, and storage.
func (p *Pipeline) finish(ctx context.Context, w *docWork) (*Outcome, error) {
	f := w.filing

	cleaned, stats := normalize.Clean(w.text)
	w.text = cleaned
	f.Status = model.StatusCleaned

	if normalize.NonBlankLines(cleaned) <= 1 {
		f.OCRFailed = true
		zap.L().Warn("pipeline: no usable text after ocr, storing metadata only",
			zap.String("source_url", f.SourceURL),
			zap.Int("lines_removed", stats.RemovedLines),
		)
	}

	if p.opts.DryRun {
		w.out.Status = model.StatusCleaned
		zap.L().Info("pipeline: dry run, stopping before extraction",
			zap.String("source_url", f.SourceURL),
			zap.String("kind", string(w.class.Kind)),
			zap.Bool("ocr_failed", f.OCRFailed),
		)
		return w.out, nil
	}

	var err error
	switch w.class.Kind {
	case classify.KindComplaint:
		err = p.storeComplaint(ctx, w)
	case classify.KindSettlement:
		err = p.storeSettlement(ctx, w)
	case classify.KindLicenseOnly:
		err = p.storeLicenseOnly(ctx, w)
	}
	if err != nil {
		var se *stageError
		if errors.As(err, &se) {
			return p.fail(ctx, w, se.stage, se.kind, se.err), nil
		}
		return nil, err
	}

	f.Status = model.StatusStored
	f.ProcessedAt = time.Now().UTC()
	if err := p.store.UpsertFiling(ctx, f); err != nil {
		return nil, eris.Wrap(err, "pipeline: store filing")
	}
	if err := p.store.ClearFailures(ctx, f.SourceURL); err != nil {
		return nil, eris.Wrap(err, "pipeline: clear failures")
	}

	w.out.Status = model.StatusStored
	return w.out, nil
}

// storeComplaint extracts a complaint, chains its amendment, and stores it
// under its case number.
func (p *Pipeline) storeComplaint(ctx context.Context, w *docWork) error {
	f := w.filing
	prefix, suffix, _ := model.SplitCaseNumber(f.CaseNumber)

	c := &model.Complaint{
		CaseNumber:  f.CaseNumber,
		CasePrefix:  prefix,
		SeriesIndex: suffix,
		SourceURL:   f.SourceURL,
		DocType:     f.DocType,
		Respondent:  f.Respondent,
		FilingYear:  f.FilingYear,
		FilingDate:  f.FilingDate,
		IsAmended:   w.class.IsAmended,
		Text:        w.text,
		OCRFailed:   f.OCRFailed,
	}

	if !f.OCRFailed {
		err := p.paused(ctx, func(ctx context.Context) error {
			facts, version, err := p.extractor.ExtractComplaint(ctx, w.meta(), w.text)
			if err != nil {
				return err
			}
			c.Extracted = facts
			c.Extraction = version
			return nil
		})
		if err != nil {
			return &stageError{stage: model.StageExtract, kind: extractFailureKind(err), err: err}
		}
		f.Status = model.StatusExtracted
	}

	if w.class.IsAmended {
		if _, err := p.resolver.ChainAmendment(ctx, c, w.class.Priority); err != nil {
			return eris.Wrap(err, "pipeline: chain amendment")
		}
		p.summarizeAmendment(ctx, c)
	}

	if err := p.store.UpsertComplaint(ctx, c); err != nil {
		return eris.Wrap(err, "pipeline: store complaint")
	}
	f.Status = model.StatusLinked

	if prefix != "" {
		if err := p.resolver.IndexSeries(ctx, prefix); err != nil {
			return eris.Wrap(err, "pipeline: index series")
		}
	}
	return nil
}

// summarizeAmendment asks the model what changed relative to the original
// complaint. Best effort: without the original's text, or on a comparison
// failure, the amendment is stored without a summary.
func (p *Pipeline) summarizeAmendment(ctx context.Context, c *model.Complaint) {
	if c.AmendsCaseNum == "" || c.OCRFailed {
		return
	}
	orig, err := p.store.GetComplaint(ctx, c.AmendsCaseNum)
	if err != nil || orig == nil || orig.Text == "" {
		zap.L().Warn("pipeline: original text unavailable for amendment comparison",
			zap.String("case_number", c.CaseNumber),
			zap.String("amends", c.AmendsCaseNum),
			zap.Error(err),
		)
		return
	}
	summary, err := p.extractor.CompareAmendment(ctx, orig.Text, c.Text)
	if err != nil {
		zap.L().Warn("pipeline: amendment comparison failed",
			zap.String("case_number", c.CaseNumber),
			zap.Error(err),
		)
		return
	}
	c.AmendmentSummary = summary
}

// storeSettlement extracts a settlement and links it to its complaints.
// A settlement always carries at least one case number; a filing whose
// title yields none cannot resolve to any complaint and is parked as a
// linking gap rather than stored.
func (p *Pipeline) storeSettlement(ctx context.Context, w *docWork) error {
	f := w.filing

	if len(f.CaseNumbers) == 0 {
		return &stageError{
			stage: model.StageLink,
			kind:  model.FailLinkingGap,
			err:   eris.Errorf("settlement %s cites no case numbers", f.SourceURL),
		}
	}

	s := &model.Settlement{
		SourceURL:   f.SourceURL,
		DocType:     f.DocType,
		Respondent:  f.Respondent,
		CaseNumbers: f.CaseNumbers,
		FilingYear:  f.FilingYear,
		FilingDate:  f.FilingDate,
		Outcome:     model.ResolutionOutcome(f.DocType),
		Text:        w.text,
		OCRFailed:   f.OCRFailed,
	}

	if !f.OCRFailed {
		err := p.paused(ctx, func(ctx context.Context) error {
			facts, version, err := p.extractor.ExtractSettlement(ctx, w.meta(), w.text)
			if err != nil {
				return err
			}
			s.Extracted = facts
			s.Extraction = version
			return nil
		})
		if err != nil {
			return &stageError{stage: model.StageExtract, kind: extractFailureKind(err), err: err}
		}
		f.Status = model.StatusExtracted
	}

	matched, err := p.resolver.LinkSettlement(ctx, s)
	if err != nil {
		return eris.Wrap(err, "pipeline: link settlement")
	}
	f.Status = model.StatusLinked

	zap.L().Debug("pipeline: settlement linked",
		zap.String("source_url", s.SourceURL),
		zap.Int("matched", matched),
		zap.Int("cited", len(s.CaseNumbers)),
	)
	return nil
}

// storeLicenseOnly stores a license-tied administrative action. These never
// reach extraction.
func (p *Pipeline) storeLicenseOnly(ctx context.Context, w *docWork) error {
	f := w.filing
	lo := &model.LicenseOnlyFiling{
		SourceURL:     f.SourceURL,
		LicenseNumber: strings.TrimPrefix(f.CaseNumber, "LICENSE-"),
		DocType:       f.DocType,
		Respondent:    f.Respondent,
		FilingDate:    f.FilingDate,
		Text:          w.text,
		OCRFailed:     f.OCRFailed,
	}
	if err := p.store.UpsertLicenseOnly(ctx, lo); err != nil {
		return eris.Wrap(err, "pipeline: store license action")
	}
	return nil
}

// paused runs fn and, when the backend rate limits, pauses the run once and
// retries. A second rate limit is returned to the caller and recorded as a
// retryable failure.
func (p *Pipeline) paused(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !resilience.IsRateLimited(err) {
		return err
	}

	pause := p.opts.RateLimitPause
	var rl *resilience.RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		pause = rl.RetryAfter
	}
	zap.L().Warn("pipeline: rate limited, pausing run", zap.Duration("pause", pause))
	if serr := p.sleep(ctx, pause); serr != nil {
		return err
	}
	return fn(ctx)
}

func extractFailureKind(err error) model.FailureKind {
	if resilience.IsRateLimited(err) {
		return model.FailExtractionRateLimited
	}
	return model.FailExtractionInvalid
}

// fail records the failure against the document and parks it. Persistence
// problems while recording are logged, not raised; the outcome already
// carries the original error.
func (p *Pipeline) fail(ctx context.Context, w *docWork, stage model.Stage, kind model.FailureKind, cause error) *Outcome {
	f := w.filing
	f.Status = model.StatusFailed
	w.out.Status = model.StatusFailed
	w.out.Failure = kind
	w.out.Err = cause

	zap.L().Error("pipeline: document failed",
		zap.String("source_url", f.SourceURL),
		zap.String("stage", string(stage)),
		zap.String("kind", string(kind)),
		zap.Error(cause),
	)

	if p.opts.DryRun {
		return w.out
	}
	if err := p.store.UpsertFiling(ctx, f); err != nil {
		zap.L().Warn("pipeline: failed to persist filing status", zap.Error(err))
	}
	rec := &model.FailureRecord{
		SourceURL:  f.SourceURL,
		CaseNumber: f.CaseNumber,
		Stage:      stage,
		Kind:       kind,
		Reason:     cause.Error(),
		OccurredAt: time.Now().UTC(),
	}
	if err := p.store.RecordFailure(ctx, rec); err != nil {
		zap.L().Warn("pipeline: failed to record failure", zap.Error(err))
	}
	return w.out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
