// Package lingtrain drives the Python lingtrain_aligner package. Every
// operation runs the embedded bridge script once, passing a JSON request on
// stdin and reading a JSON response from stdout.
package lingtrain

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/engine"
)

const Name = "lingtrain"

const defaultPython = "python3"

//go:embed bridge.py
var bridgeScript string

func init() {
	engine.Register(Name, func(opts engine.Options) (engine.Engine, error) {
		return New(opts), nil
	})
}

type request struct {
	Command string `json:"command"`
	Args    any    `json:"args,omitempty"`
}

type response struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type Engine struct {
	python string
	script string
	logger *zap.Logger
}

func New(opts engine.Options) *Engine {
	python := opts.Python
	if python == "" {
		python = defaultPython
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{python: python, script: opts.Script, logger: logger}
}

func (e *Engine) Name() string {
	return Name
}

func (e *Engine) Init(ctx context.Context, path, lang1, lang2 string, from, to []string) error {
	args := map[string]any{
		"path":  path,
		"lang1": lang1,
		"lang2": lang2,
		"from":  nonNil(from),
		"to":    nonNil(to),
	}
	return e.call(ctx, "init", args, nil)
}

func (e *Engine) AlignBatches(ctx context.Context, path, model string, p engine.BatchParams) error {
	args := map[string]any{
		"path":                 path,
		"model":                model,
		"batch_size":           p.BatchSize,
		"batch_ids":            p.BatchIDs,
		"window":               p.Window,
		"embed_batch_size":     p.EmbedBatchSize,
		"normalize_embeddings": p.Normalize,
	}
	return e.call(ctx, "align", args, nil)
}

func (e *Engine) FindConflicts(ctx context.Context, path string, q engine.ConflictQuery) ([]engine.Conflict, []engine.Conflict, error) {
	args := map[string]any{
		"path":              path,
		"min_chain_length":  q.MinChain,
		"max_conflicts_len": q.MaxLen,
		"batch_id":          q.BatchID,
		"handle_start":      q.HandleStart,
		"handle_finish":     q.HandleFinish,
	}
	var out struct {
		Conflicts []engine.Conflict `json:"conflicts"`
		Rest      []engine.Conflict `json:"rest"`
	}
	if err := e.call(ctx, "conflicts", args, &out); err != nil {
		return nil, nil, err
	}
	return out.Conflicts, out.Rest, nil
}

func (e *Engine) ResolveConflicts(ctx context.Context, path string, conflicts []engine.Conflict, model string) error {
	if len(conflicts) == 0 {
		return nil
	}
	args := map[string]any{
		"path":      path,
		"conflicts": conflicts,
		"model":     model,
	}
	return e.call(ctx, "resolve", args, nil)
}

func (e *Engine) ReadParagraphs(ctx context.Context, path, direction string) (engine.Paragraphs, error) {
	var p engine.Paragraphs
	err := e.call(ctx, "paragraphs", map[string]any{"path": path, "direction": direction}, &p)
	return p, err
}

func (e *Engine) Render(ctx context.Context, path, out string, p engine.RenderParams) error {
	args := map[string]any{
		"path":           path,
		"out":            out,
		"lang_name_from": p.LangFrom,
		"lang_name_to":   p.LangTo,
		"batch_size":     p.BatchSize,
		"width":          p.Width,
		"height":         p.Height,
	}
	return e.call(ctx, "render", args, nil)
}

func (e *Engine) call(ctx context.Context, command string, args any, out any) error {
	reqData, err := json.Marshal(request{Command: command, Args: args})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", command, err)
	}

	var cmdArgs []string
	if e.script != "" {
		cmdArgs = []string{e.script}
	} else {
		cmdArgs = []string{"-c", bridgeScript}
	}

	cmd := exec.CommandContext(ctx, e.python, cmdArgs...)
	cmd.Stdin = bytes.NewReader(reqData)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("lingtrain call", zap.String("command", command))
	runErr := cmd.Run()
	if stderr.Len() > 0 {
		e.logger.Debug("lingtrain stderr", zap.String("command", command), zap.String("output", tail(stderr.String(), 2000)))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var resp response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		if runErr != nil {
			return fmt.Errorf("lingtrain %s failed: %w: %s", command, runErr, tail(stderr.String(), 500))
		}
		return fmt.Errorf("failed to decode lingtrain %s response: %w", command, err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("lingtrain %s failed: %s", command, resp.Error)
	}
	if runErr != nil {
		return fmt.Errorf("lingtrain %s failed: %w", command, runErr)
	}

	if out != nil && len(resp.Result) > 0 && string(resp.Result) != "null" {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("failed to decode lingtrain %s result: %w", command, err)
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
