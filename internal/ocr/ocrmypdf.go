package ocr

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ocrmypdf exits 6 when every page already carries a text layer.
const exitPriorOCR = 6

// OcrMyPDF runs the ocrmypdf CLI to produce a searchable PDF and sidecar
// text file.
type OcrMyPDF struct {
	binPath       string
	pdftotextPath string
	jobs          int
}

// NewOcrMyPDF creates a Runner backed by the ocrmypdf and pdftotext CLIs.
// Empty paths fall back to the bare command names.
func NewOcrMyPDF(binPath, pdftotextPath string, jobs int) *OcrMyPDF {
	if binPath == "" {
		binPath = "ocrmypdf"
	}
	if pdftotextPath == "" {
		pdftotextPath = "pdftotext"
	}
	if jobs <= 0 {
		jobs = 2
	}
	return &OcrMyPDF{binPath: binPath, pdftotextPath: pdftotextPath, jobs: jobs}
}

// Run OCRs one document under its page-derived timeout. Documents that
// already carry a text layer are copied through and read with pdftotext
// instead of being re-rasterized.
func (o *OcrMyPDF) Run(ctx context.Context, pdfPath, outPDF, outText string) (*Result, error) {
	pages, err := PageCount(pdfPath)
	if err != nil {
		return nil, &ToolError{Path: pdfPath, Stderr: "page count unavailable", Err: err}
	}

	timeout := TimeoutFor(pages)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, dir := range []string{filepath.Dir(outPDF), filepath.Dir(outText)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "ocr: mkdir %s", dir)
		}
	}

	start := time.Now()
	cmd := exec.CommandContext(runCtx, o.binPath,
		"--sidecar", outText,
		"--rotate-pages",
		"--deskew",
		"--clean",
		"--force-ocr",
		"-l", "eng",
		"--jobs", strconv.Itoa(o.jobs),
		pdfPath,
		outPDF,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err = cmd.Run()
	usedFallback := false
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Path: pdfPath, Pages: pages, Timeout: timeout}
		}

		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		if exitCode == exitPriorOCR || strings.Contains(strings.ToLower(stderr.String()), "page already has text") {
			if err := o.fallbackExistingText(runCtx, pdfPath, outPDF, outText); err != nil {
				return nil, err
			}
			usedFallback = true
		} else {
			return nil, &ToolError{Path: pdfPath, Stderr: truncate(stderr.String(), 500), Err: err}
		}
	}

	text, err := os.ReadFile(outText)
	if err != nil {
		return nil, &ToolError{Path: pdfPath, Stderr: "sidecar text missing", Err: err}
	}

	res := &Result{
		SearchablePDF: outPDF,
		TextPath:      outText,
		Text:          string(text),
		Pages:         pages,
		WordCount:     len(strings.Fields(string(text))),
		Duration:      time.Since(start),
		UsedFallback:  usedFallback,
	}
	zap.L().Info("ocr: document processed",
		zap.String("pdf", pdfPath),
		zap.Int("pages", pages),
		zap.Int("words", res.WordCount),
		zap.Duration("duration", res.Duration),
		zap.Bool("fallback", usedFallback),
	)
	return res, nil
}

// fallbackExistingText handles PDFs that already have a text layer: the
// input is copied as-is and pdftotext reads the existing layer.
func (o *OcrMyPDF) fallbackExistingText(ctx context.Context, pdfPath, outPDF, outText string) error {
	if err := copyFile(pdfPath, outPDF); err != nil {
		return &ToolError{Path: pdfPath, Stderr: "copy input", Err: err}
	}

	cmd := exec.CommandContext(ctx, o.pdftotextPath, pdfPath, outText)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		// Match ocrmypdf behavior on an unreadable layer: empty sidecar,
		// downstream marks the document ocr_failed.
		if werr := os.WriteFile(outText, nil, 0o644); werr != nil {
			return &ToolError{Path: pdfPath, Stderr: truncate(stderr.String(), 500), Err: werr}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
