// Package engine ties classification, placement and message building into
// the operations exposed by the commands: insert, detect and the bulk edits.
package engine

import (
	"errors"
	"log/slog"
	"strings"

	"logsmith/internal/brackets"
	"logsmith/internal/classify"
	"logsmith/internal/config"
	"logsmith/internal/detect"
	"logsmith/internal/document"
	"logsmith/internal/enclosing"
	"logsmith/internal/jsline"
	"logsmith/internal/logging"
	"logsmith/internal/message"
	"logsmith/internal/placement"
	"logsmith/internal/rewrite"
	"logsmith/internal/syntax"
)

// Engine runs commands against documents with one configuration.
type Engine struct {
	props      config.Properties
	logger     *slog.Logger
	closer     brackets.Closer
	classifier classify.Classifier
	placer     placement.Resolver
}

// New creates an engine. A nil logger discards output.
func New(props config.Properties, logger *slog.Logger) *Engine {
	closer := brackets.Default
	return &Engine{
		props:      props,
		logger:     logging.Component(logger, "engine"),
		closer:     closer,
		classifier: classify.Classifier{Closer: closer},
		placer:     placement.Resolver{Closer: closer},
	}
}

// Props returns the engine configuration.
func (e *Engine) Props() config.Properties {
	return e.props
}

// Insertion describes one statement added by Insert.
type Insertion struct {
	Variable string `json:"variable"`
	Category string `json:"category"`
	// Range is what detection reports for the statement: the call and, when
	// wrapped, its banners.
	Range document.LineRange `json:"range"`
	// Call is the line of the log call.
	Call int `json:"call"`
	// Block covers every line written for the insertion, including empty
	// lines, wrap banners and a rewritten arrow function.
	Block     document.LineRange `json:"block"`
	Rewritten bool               `json:"rewritten,omitempty"`
}

// Step is one applied edit: the snapshot it was computed from and the batch.
type Step struct {
	Before *document.Document
	Batch  *document.Batch
}

// Result is the outcome of Insert.
type Result struct {
	Insertions []Insertion `json:"insertions"`
	Steps      []Step      `json:"-"`
}

// Diff renders every step as a unified diff.
func (r Result) Diff() ([]byte, error) {
	var out []byte
	for _, s := range r.Steps {
		d, err := document.UnifiedDiff(s.Before, s.Batch)
		if err != nil {
			return nil, err
		}
		out = append(out, d...)
	}
	return out, nil
}

// Insert adds a debug statement for each selection. Selections are handled
// one after another: each edit is applied before the next selection is
// classified, and the remaining selections are shifted to follow it.
// Selections without text and without a word under the cursor are skipped.
func (e *Engine) Insert(doc *document.Document, selections []document.Selection) (Result, error) {
	if doc == nil {
		return Result{}, document.ErrNoDocument
	}
	pending := append([]document.Selection(nil), selections...)
	resolver := e.enclosingResolver(doc)

	var res Result
	for i := range pending {
		sel := pending[i]
		name := doc.SelectedText(sel)
		if name == "" {
			e.logger.Debug("empty selection skipped", "line", sel.Start.Line)
			continue
		}
		before := doc.Clone()
		ins, batch, err := e.insertOne(doc, sel.Start.Line, name, resolver)
		if err != nil {
			return res, err
		}
		if err := doc.Apply(batch); err != nil {
			return res, err
		}
		res.Insertions = append(res.Insertions, ins)
		res.Steps = append(res.Steps, Step{Before: before, Batch: batch})

		for j := i + 1; j < len(pending); j++ {
			pending[j].Start.Line = batch.MapLine(pending[j].Start.Line)
			pending[j].End.Line = batch.MapLine(pending[j].End.Line)
		}
	}
	return res, nil
}

func (e *Engine) insertOne(doc *document.Document, line int, name string, resolver enclosing.Resolver) (Insertion, *document.Batch, error) {
	cls := e.classifier.Classify(doc, line, name)
	variable := name
	if cls.DeepObjectPath != "" {
		variable = cls.DeepObjectPath
	}
	ctx := message.Context{FileName: doc.FileName()}
	if e.props.InsertEnclosingClass {
		ctx.ClassName = resolver.EnclosingName(doc, line, enclosing.Class)
	}
	if e.props.InsertEnclosingFunction {
		ctx.FunctionName = resolver.EnclosingName(doc, line, enclosing.Function)
	}
	lead := message.LeadingLines(e.props)

	if cls.Category == classify.MultiLineAnonymousFunction {
		ctx.Line = line + 1 + lead + 1
		stmt := message.Build(variable, ctx, e.props)
		rw, err := rewrite.Rewrite(doc, line, stmt, rewrite.Options{
			Tab:       e.props.Tab(),
			Semicolon: e.props.AddSemicolonInTheEnd,
			Closer:    e.closer,
		})
		switch {
		case err == nil:
			e.logger.Debug("arrow function rewritten", "variable", variable, "line", line, "end", rw.EndLine)
			return Insertion{
				Variable:  variable,
				Category:  cls.Category.String(),
				Range:     e.messageRange(rw.CallLine),
				Call:      rw.CallLine,
				Block:     rw.Block,
				Rewritten: true,
			}, rw.Batch, nil
		case !errors.Is(err, rewrite.ErrNotRewritable):
			return Insertion{}, nil, err
		}
	}

	target := e.placer.ResolveLine(doc, line, name, cls)
	ctx.Line = target + lead + 1
	stmt := message.Build(variable, ctx, e.props)
	lines := stmt.Render(e.indentation(doc, line, target))

	b := document.NewBatch()
	b.Insert(target, lines...)
	call := target + stmt.CallOffset
	e.logger.Debug("statement placed",
		"variable", variable,
		"category", cls.Category.String(),
		"selection", line,
		"line", target,
	)
	return Insertion{
		Variable: variable,
		Category: cls.Category.String(),
		Range:    e.messageRange(call),
		Call:     call,
		Block:    document.LineRange{Start: target, End: target + len(lines) - 1},
	}, b, nil
}

// messageRange returns the lines a statement whose call sits on call is
// detected as.
func (e *Engine) messageRange(call int) document.LineRange {
	if e.props.WrapLogMessage {
		return document.LineRange{Start: call - 1, End: call + 1}
	}
	return document.LineRange{Start: call, End: call}
}

// indentation matches the deeper of the selection line and the line the
// statement is inserted before. Directly after an opening brace the
// statement goes one level deeper than the brace line.
func (e *Engine) indentation(doc *document.Document, line, target int) string {
	indent := document.Indentation(doc.Line(line))
	next := document.Indentation(doc.Line(target))
	if len(next) > len(indent) {
		indent = next
	}
	if target == 0 {
		return indent
	}
	prev := doc.Line(target - 1)
	if strings.HasSuffix(jsline.Code(prev), "{") && len(next) <= len(document.Indentation(prev)) {
		return document.Indentation(prev) + e.props.Tab()
	}
	return indent
}

func (e *Engine) enclosingResolver(doc *document.Document) enclosing.Resolver {
	lineResolver := enclosing.LineResolver{Closer: e.closer}
	if e.props.EnclosingResolver == config.ResolverSyntax && syntax.IsSupportedFile(doc.Path) {
		return &syntax.Resolver{Path: doc.Path, Fallback: lineResolver}
	}
	return lineResolver
}

// Detect returns the generated statements in doc.
func (e *Engine) Detect(doc *document.Document, overrides config.Overrides) []detect.Message {
	if doc == nil {
		return nil
	}
	msgs := detect.DetectAll(doc, e.props, overrides)
	e.logger.Debug("messages detected", "file", doc.FileName(), "count", len(msgs))
	return msgs
}
