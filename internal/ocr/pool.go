package ocr

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one document queued for OCR.
type Job struct {
	SourceURL string
	PDFPath   string
	OutPDF    string
	OutText   string
}

// JobResult pairs a job with its outcome. Err is a *TimeoutError or
// *ToolError; a failed job never fails the batch.
type JobResult struct {
	Job    Job
	Result *Result
	Err    error
}

// RunPool OCRs jobs with bounded parallelism. OCR is CPU-bound and safe to
// parallelize across independent files; workers defaults to 2. Cancelling
// ctx stops new jobs from starting, in-flight jobs run to their own timeout.
func RunPool(ctx context.Context, runner Runner, jobs []Job, workers int) []JobResult {
	if workers <= 0 {
		workers = 2
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)

	var mu sync.Mutex
	results := make([]JobResult, 0, len(jobs))

	for _, job := range jobs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res, err := runner.Run(ctx, job.PDFPath, job.OutPDF, job.OutText)
			if err != nil {
				zap.L().Warn("ocr: document failed",
					zap.String("source_url", job.SourceURL),
					zap.String("pdf", job.PDFPath),
					zap.Error(err),
				)
			}
			mu.Lock()
			results = append(results, JobResult{Job: job, Result: res, Err: err})
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}
