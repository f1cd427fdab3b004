package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/boardwatch/filings-cli/internal/linking"
	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/ocr"
)

// RunStats summarizes a batch run.
type RunStats struct {
	Total    int
	Stored   int
	Skipped  int
	Ignored  int
	Failed   int
	Linking  *linking.Stats
	Outcomes []Outcome
}

func (s *RunStats) record(out *Outcome) {
	s.Outcomes = append(s.Outcomes, *out)
	switch {
	case out.Skipped:
		s.Skipped++
	case out.Status == model.StatusIgnored:
		s.Ignored++
	case out.Status == model.StatusFailed:
		s.Failed++
	case out.Status == model.StatusStored:
		s.Stored++
	}
}

// Batch processes a set of filings. OCR runs on a bounded worker pool;
// everything after it is document-at-a-time so extraction stays inside the
// shared token budget. The pass ends with a full relink so settlements
// stored before their complaints pick up the new references.
func (p *Pipeline) Batch(ctx context.Context, filings []model.Filing) (*RunStats, error) {
	stats := &RunStats{Total: len(filings)}

	var work []*docWork
	for i := range filings {
		f := &filings[i]
		w, out, err := p.prepare(ctx, f)
		if err != nil {
			return stats, err
		}
		if w == nil {
			stats.record(out)
			continue
		}
		work = append(work, w)
	}

	work = p.ocrBatch(ctx, work, stats)

	for _, w := range work {
		if ctx.Err() != nil {
			return stats, eris.Wrap(ctx.Err(), "pipeline: batch cancelled")
		}
		out, err := p.finish(ctx, w)
		if err != nil {
			zap.L().Error("pipeline: document aborted",
				zap.String("source_url", w.filing.SourceURL),
				zap.Error(err),
			)
			w.out.Status = model.StatusFailed
			w.out.Err = err
			stats.record(w.out)
			continue
		}
		stats.record(out)
	}

	if !p.opts.DryRun {
		ls, err := p.resolver.Relink(ctx)
		if err != nil {
			return stats, eris.Wrap(err, "pipeline: relink")
		}
		stats.Linking = ls
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("total", stats.Total),
		zap.Int("stored", stats.Stored),
		zap.Int("skipped", stats.Skipped),
		zap.Int("ignored", stats.Ignored),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// ocrBatch OCRs every document that still needs it and drops the ones that
// failed, recording each failure. Documents with sidecar text already on
// disk pass through without re-running OCR.
func (p *Pipeline) ocrBatch(ctx context.Context, work []*docWork, stats *RunStats) []*docWork {
	byURL := make(map[string]*docWork)
	var jobs []ocr.Job
	var ready []*docWork

	for _, w := range work {
		f := w.filing
		if p.opts.SkipOcr || f.PDFPath == "" || f.TextPath != "" {
			if err := p.loadText(w); err != nil {
				stats.record(p.fail(ctx, w, model.StageOcr, ocrFailureKind(err), err))
				continue
			}
			ready = append(ready, w)
			continue
		}

		f.Status = model.StatusOcrPending
		outPDF, outText := p.outputPaths(f)
		byURL[f.SourceURL] = w
		jobs = append(jobs, ocr.Job{
			SourceURL: f.SourceURL,
			PDFPath:   f.PDFPath,
			OutPDF:    outPDF,
			OutText:   outText,
		})
	}

	for _, jr := range ocr.RunPool(ctx, p.runner, jobs, p.opts.OcrWorkers) {
		w := byURL[jr.Job.SourceURL]
		if w == nil {
			continue
		}
		if jr.Err != nil {
			stats.record(p.fail(ctx, w, model.StageOcr, ocrFailureKind(jr.Err), jr.Err))
			continue
		}
		w.filing.Status = model.StatusOcrDone
		w.filing.TextPath = jr.Result.TextPath
		w.filing.PageCount = jr.Result.Pages
		w.text = jr.Result.Text
		ready = append(ready, w)
	}
	return ready
}
