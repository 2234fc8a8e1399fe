package engine

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"logsmith/internal/config"
	"logsmith/internal/detect"
	"logsmith/internal/document"
)

// Operation is a bulk command over the generated statements of a document.
type Operation string

const (
	OpDetect    Operation = "detect"
	OpComment   Operation = "comment"
	OpUncomment Operation = "uncomment"
	OpDelete    Operation = "delete"
	OpCorrect   Operation = "correct"
)

// ParseOperation validates an operation name.
func ParseOperation(name string) (Operation, error) {
	switch op := Operation(name); op {
	case OpDetect, OpComment, OpUncomment, OpDelete, OpCorrect:
		return op, nil
	}
	return "", fmt.Errorf("unknown operation %q", name)
}

// Bulk detects the generated statements of doc and computes the batch for
// op. The document is not modified; OpDetect yields an empty batch.
func (e *Engine) Bulk(doc *document.Document, op Operation, overrides config.Overrides) ([]detect.Message, *document.Batch, error) {
	if doc == nil {
		return nil, nil, document.ErrNoDocument
	}
	msgs := e.Detect(doc, overrides)
	var b *document.Batch
	switch op {
	case OpDetect:
		b = document.NewBatch()
	case OpComment:
		b = detect.Comment(doc, msgs)
	case OpUncomment:
		b = detect.Uncomment(doc, msgs)
	case OpDelete:
		b = detect.Delete(doc, msgs)
	case OpCorrect:
		b = detect.Correct(doc, msgs)
	default:
		return nil, nil, fmt.Errorf("unknown operation %q", op)
	}
	return msgs, b, nil
}

// FileResult reports what a bulk command did to one file.
type FileResult struct {
	Path     string           `json:"path"`
	Messages []detect.Message `json:"messages"`
	Edits    int              `json:"edits"`
	Diff     string           `json:"diff,omitempty"`
	Err      error            `json:"-"`
}

// FileOptions controls ProcessFiles.
type FileOptions struct {
	Overrides config.Overrides
	// DryRun computes the edits without writing files.
	DryRun bool
	// Diff fills FileResult.Diff.
	Diff bool
	// Workers bounds the number of files processed at once. Zero means
	// GOMAXPROCS.
	Workers int
}

// ProcessFiles runs op over every path. Files are independent, so they are
// handled concurrently; each file is written back only after its batch
// applied cleanly. Per-file failures are reported in the results and do not
// stop the other files. The returned error is non-nil only when ctx is done.
func (e *Engine) ProcessFiles(ctx context.Context, paths []string, op Operation, opts FileOptions) ([]FileResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.ProcessFile(path, op, opts)
			if results[i].Err != nil {
				e.logger.Warn("file skipped", "path", path, "error", results[i].Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// ProcessFile runs op over a single file and writes it back when it changed.
func (e *Engine) ProcessFile(path string, op Operation, opts FileOptions) FileResult {
	res := FileResult{Path: path}
	doc, err := document.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	msgs, b, err := e.Bulk(doc, op, opts.Overrides)
	if err != nil {
		res.Err = err
		return res
	}
	res.Messages = msgs
	res.Edits = b.Len()
	if b.Len() == 0 {
		return res
	}
	if opts.Diff {
		d, err := document.UnifiedDiff(doc, b)
		if err != nil {
			res.Err = err
			return res
		}
		res.Diff = string(d)
	}
	if opts.DryRun {
		return res
	}
	if err := doc.Apply(b); err != nil {
		res.Err = fmt.Errorf("apply %s to %s: %w", op, path, err)
		return res
	}
	if err := doc.Save(); err != nil {
		res.Err = fmt.Errorf("save %s: %w", path, err)
	}
	return res
}
