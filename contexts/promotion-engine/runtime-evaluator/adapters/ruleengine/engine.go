// Package ruleengine adapts github.com/expr-lang/expr as the Runtime
// Evaluator's RuleEngine port, with an in-process compiled-workflow
// cache (spec.md §5: "concurrent map... evicted on insert... not a
// strict LRU" — golang-lru gives us a real LRU, which is a strictly
// better approximation of that behavior).
package ruleengine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"
)

// workflowDoc mirrors the authoring compiler's persisted Workflow JSON
// (spec.md §6 "Workflow JSON"); duplicated here rather than imported
// to keep the evaluator decoupled from the authoring-compiler package.
type workflowDoc struct {
	WorkflowName string `json:"workflowName"`
	Rules        []struct {
		RuleName   string `json:"ruleName"`
		Expression string `json:"expression"`
	} `json:"rules"`
}

type compiledWorkflow map[string]*vm.Program

const defaultCacheCapacity = 512

// Engine is the expr-lang-backed RuleEngine.
type Engine struct {
	cache  *lru.Cache[string, compiledWorkflow]
	logger *slog.Logger
}

// NewEngine builds an Engine with a bounded compiled-workflow cache.
// capacity <= 0 falls back to defaultCacheCapacity.
func NewEngine(capacity int, logger *slog.Logger) *Engine {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	// lru.New only errors for capacity <= 0, already excluded above.
	cache, _ := lru.New[string, compiledWorkflow](capacity)
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cache: cache, logger: logger}
}

// Evaluate compiles (or reuses a cached compile of) workflow, then runs
// the named rule against evalCtx. A missing rule name is reported as a
// non-match, not an error (spec.md §4.5 "a group whose compiled rule
// does not appear in the workflow... is treated as non-matching").
func (e *Engine) Evaluate(ctx context.Context, workflow []byte, ruleName string, evalCtx map[string]any) (bool, error) {
	compiled, err := e.compiledFor(workflow)
	if err != nil {
		return false, err
	}
	program, ok := compiled[ruleName]
	if !ok {
		return false, nil
	}

	out, err := expr.Run(program, map[string]any{"ctx": evalCtx})
	if err != nil {
		return false, err
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule %q did not evaluate to a bool (got %T)", ruleName, out)
	}
	return result, nil
}

func (e *Engine) compiledFor(workflow []byte) (compiledWorkflow, error) {
	key := contentHash(workflow)
	if compiled, ok := e.cache.Get(key); ok {
		return compiled, nil
	}

	var doc workflowDoc
	if err := json.Unmarshal(workflow, &doc); err != nil {
		return nil, err
	}

	compiled := make(compiledWorkflow, len(doc.Rules))
	for _, rule := range doc.Rules {
		program, err := expr.Compile(rule.Expression)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", rule.RuleName, err)
		}
		compiled[rule.RuleName] = program
	}

	e.cache.Add(key, compiled)
	return compiled, nil
}

func contentHash(workflow []byte) string {
	sum := sha256.Sum256(workflow)
	return hex.EncodeToString(sum[:])
}
