// Package eval implements the evaluation engine (C9): scoring a
// pipeline's answers against a labeled CSV with a fixed judge LLM,
// processed with a bounded concurrent fan-out that preserves input
// order in the output.
package eval

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/chatengine"
	"github.com/krira-ai/ragcore/llmgateway"
)

const defaultConcurrency = 3
const judgeMaxTokens = 900

// Engine scores a pipeline's answers against a labeled CSV.
type Engine struct {
	chat  *chatengine.Engine
	judge *llmgateway.Client

	// judgeModel is the fixed gateway model used for the judge call,
	// independent of any pipeline's answering model.
	judgeModel string
}

// New wires the chat orchestrator (for per-row retrieve+generate) and
// the LLM gateway (for the fixed judge call) behind an eval Engine.
func New(chat *chatengine.Engine, judge *llmgateway.Client, judgeModel string) *Engine {
	return &Engine{chat: chat, judge: judge, judgeModel: judgeModel}
}

// Request is a single evaluation run.
type Request struct {
	Pipeline    ragcore.Pipeline
	Rows        []Row
	Concurrency int
}

// RowResult is one scored row, in CSV input order.
type RowResult struct {
	QuestionNumber  string            `json:"question_number"`
	Question        string            `json:"question"`
	ExpectedAnswer  string            `json:"expected_answer"`
	ModelAnswer     string            `json:"model_answer"`
	Verdict         string            `json:"verdict"`
	Metrics         map[string]float64 `json:"metrics"`
	MetricNotes     map[string]string `json:"metric_notes,omitempty"`
	ContextSnippets []string          `json:"context_snippets,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// Result is the aggregate C9 response contract.
type Result struct {
	Rows           []RowResult        `json:"rows"`
	MetricAverages map[string]float64 `json:"metrics"`
	Justifications map[string]string  `json:"justifications"`
}

// Run scores every row, retrieving and generating through the chat
// orchestrator and judging with the fixed judge LLM, up to the
// configured concurrency ceiling (default 3, clamped to [1,16]).
// Output order matches input order regardless of completion order.
// Unparseable judge output on any row is a hard failure of the run.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Rows) == 0 {
		return nil, ragcore.NewError(ragcore.KindValidation, "evaluation requires at least one row")
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 16 {
		concurrency = 16
	}

	limiter := rate.NewLimiter(rate.Limit(concurrency), concurrency)

	results := make([]RowResult, len(req.Rows))
	errs := make([]error, len(req.Rows))

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)

	for i, row := range req.Rows {
		wg.Add(1)
		go func(i int, row Row) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}

			if err := limiter.Wait(ctx); err != nil {
				errs[i] = err
				return
			}

			result, err := e.scoreRow(ctx, req.Pipeline, row)
			if err != nil {
				errs[i] = fmt.Errorf("row %s: %w", row.Number, err)
				return
			}
			results[i] = *result
		}(i, row)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return aggregate(results), nil
}

func (e *Engine) scoreRow(ctx context.Context, pipeline ragcore.Pipeline, row Row) (*RowResult, error) {
	answer, err := e.chat.Answer(ctx, chatengine.Request{Pipeline: pipeline, Question: row.Question})
	if err != nil {
		return nil, err
	}

	judgeRaw, err := e.judge.ChatJudge(ctx, e.judgeModel, evaluationSystemPrompt,
		judgeUserMessage(row.Question, row.ExpectedAnswer, answer.Answer, answer.ContextSnippets), judgeMaxTokens)
	if err != nil {
		return nil, err
	}

	payload, err := parseJudgeResponse(judgeRaw)
	if err != nil {
		return nil, err
	}

	verdict := normalizeVerdict(payload.Verdict)

	metrics := make(map[string]float64, len(metricKeys))
	metricNotes := make(map[string]string, len(metricKeys))
	for _, key := range metricKeys {
		value := payload.metric(key)
		if value == nil && key == "accuracy" {
			fallback := accuracyFallback(verdict)
			value = &fallback
		}
		if value != nil {
			metrics[key] = clampPercentage(*value)
		}
		if note := metricBreakdownFor(payload, key); note != "" {
			metricNotes[key] = note
		}
	}

	notes := ""
	if payload.Reasoning != "" {
		notes = payload.Reasoning
	}
	if payload.RecommendedFix != "" {
		if notes != "" {
			notes += " "
		}
		notes += "Suggested fix: " + payload.RecommendedFix
	}

	return &RowResult{
		QuestionNumber:  row.Number,
		Question:        row.Question,
		ExpectedAnswer:  row.ExpectedAnswer,
		ModelAnswer:     answer.Answer,
		Verdict:         verdict,
		Metrics:         metrics,
		MetricNotes:     metricNotes,
		ContextSnippets: answer.ContextSnippets,
		Notes:           notes,
	}, nil
}

type metricObservation struct {
	value float64
	row   string
}

// aggregate computes per-metric averages (with accuracy recomputed
// from verdict counts, overriding the averaged value) and per-metric
// justification strings.
func aggregate(rows []RowResult) *Result {
	observations := make(map[string][]metricObservation, len(metricKeys))
	correct := 0

	for _, r := range rows {
		if r.Verdict == "correct" {
			correct++
		}
		for _, key := range metricKeys {
			v, ok := r.Metrics[key]
			if !ok {
				continue
			}
			observations[key] = append(observations[key], metricObservation{value: v, row: r.QuestionNumber})
		}
	}

	averages := make(map[string]float64, len(metricKeys))
	for _, key := range metricKeys {
		values := observations[key]
		if len(values) == 0 {
			averages[key] = 0
			continue
		}
		sum := 0.0
		for _, v := range values {
			sum += v.value
		}
		averages[key] = sum / float64(len(values))
	}

	total := len(rows)
	if total == 0 {
		total = 1
	}
	if len(observations["accuracy"]) > 0 {
		averages["accuracy"] = float64(correct) / float64(total) * 100
	}

	justifications := make(map[string]string, len(metricKeys))
	for _, key := range metricKeys {
		values := observations[key]
		if len(values) == 0 {
			justifications[key] = "No evaluation data available."
			continue
		}
		sorted := append([]metricObservation(nil), values...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].value < sorted[j].value })
		worst := sorted[0]

		detail := ""
		for _, r := range rows {
			if note, ok := r.MetricNotes[key]; ok && note != "" {
				detail = " " + note
				break
			}
		}

		justifications[key] = fmt.Sprintf("Average %s %s%% across %d example%s. Lowest score %s%% on example #%s.%s",
			metricLabel(key), fmtPercent(averages[key]), total, plural(total), fmtPercent(worst.value), worst.row, detail)
	}

	return &Result{Rows: rows, MetricAverages: averages, Justifications: justifications}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
