package eval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/krira-ai/ragcore"
)

// evaluationSystemPrompt is the judge rubric reinstated from
// original_source's EVALUATION_SYSTEM_PROMPT, verbatim in substance.
const evaluationSystemPrompt = "" +
	"You are an advanced evaluation system for retrieval-augmented generation (RAG) assistants. " +
	"Your goal is to assess whether the assistant correctly satisfies the user's information need using the provided context.\n\n" +
	"## Core Evaluation Principles\n" +
	"1. Semantic Correctness Over Exact Matching: Judge based on meaning and information accuracy, not word-for-word similarity\n" +
	"2. Context Fidelity: Reward answers grounded in context; penalize hallucinations and unsupported claims\n" +
	"3. Practical Utility: Assess whether the answer actually helps the user, regardless of stylistic differences from the reference\n" +
	"4. Appropriate Scope: Expect answers to match the depth/breadth that the context supports\n\n" +
	"## Detailed Scoring Guidelines\n\n" +
	"**verdict** ('correct' | 'partial' | 'incorrect'):\n" +
	"- 'correct': Answer conveys the same core information as expected answer, semantically equivalent\n" +
	"- 'partial': Answer has the right direction but misses some key details or has minor inaccuracies\n" +
	"- 'incorrect': Answer is wrong, contradicts expected answer, or completely misses the point\n\n" +
	"**accuracy** (0-100):\n" +
	"- 100: Core facts match expected answer (different wording is fine)\n" +
	"- 90-99: Correct information but minor differences in completeness or presentation\n" +
	"- 70-89: Mostly correct but missing some important details\n" +
	"- 50-69: Partially correct with significant gaps or minor errors\n" +
	"- Below 50: Major errors or mostly incorrect\n" +
	"- Focus on INFORMATION CORRECTNESS, not format or style\n\n" +
	"**evaluation_score** (0-100): Holistic quality: correctness + helpfulness + professionalism.\n" +
	"**semantic_accuracy** (0-100): Ignore wording/structure/formatting differences; judge whether the same information is conveyed.\n" +
	"**faithfulness** (0-100): Every claim must be verifiable in the provided context; heavily penalize fabrication.\n" +
	"**answer_relevancy** (0-100): Directly addresses the question without tangents or excessive preamble.\n" +
	"**content_precision** (0-100): Appropriate level of detail given the context and question.\n" +
	"**context_recall** (0-100): Appropriately uses all relevant information from context; missing irrelevant context is not penalized.\n\n" +
	"## Common Evaluation Mistakes to Avoid\n" +
	"DO NOT penalize different phrasings of the same fact, expect elaborate answers when simple ones suffice, " +
	"penalize brevity when context is limited, or focus on style over substance.\n" +
	"DO reward factual correctness regardless of format, heavily penalize only actual hallucinations, " +
	"and judge whether the answer serves the user's need.\n\n" +
	"## Response Format\n" +
	"Respond ONLY with a valid JSON object (no markdown fences) containing:\n" +
	"- verdict: string ('correct' | 'partial' | 'incorrect')\n" +
	"- accuracy, evaluation_score, semantic_accuracy, faithfulness, answer_relevancy, content_precision, context_recall: number (0-100)\n" +
	"- reasoning: string (2-3 sentences summarizing the evaluation)\n" +
	"- recommended_fix: string (specific suggestion if score < 95, empty string otherwise)\n" +
	"- metric_breakdown: object with one-sentence justification for each metric"

// metricKeys is the fixed, ordered set of scored metrics.
var metricKeys = []string{
	"accuracy", "evaluation_score", "semantic_accuracy",
	"faithfulness", "answer_relevancy", "content_precision", "context_recall",
}

var allowedVerdicts = map[string]struct{}{"correct": {}, "partial": {}, "incorrect": {}}

// judgePayload is the tolerant shape of the judge's JSON response.
type judgePayload struct {
	Verdict          string             `json:"verdict"`
	Accuracy         *float64           `json:"accuracy"`
	EvaluationScore  *float64           `json:"evaluation_score"`
	SemanticAccuracy *float64           `json:"semantic_accuracy"`
	Faithfulness     *float64           `json:"faithfulness"`
	AnswerRelevancy  *float64           `json:"answer_relevancy"`
	ContentPrecision *float64           `json:"content_precision"`
	ContextRecall    *float64           `json:"context_recall"`
	Reasoning        string             `json:"reasoning"`
	RecommendedFix   string             `json:"recommended_fix"`
	MetricBreakdown  map[string]string  `json:"metric_breakdown"`
}

func (p judgePayload) metric(key string) *float64 {
	switch key {
	case "accuracy":
		return p.Accuracy
	case "evaluation_score":
		return p.EvaluationScore
	case "semantic_accuracy":
		return p.SemanticAccuracy
	case "faithfulness":
		return p.Faithfulness
	case "answer_relevancy":
		return p.AnswerRelevancy
	case "content_precision":
		return p.ContentPrecision
	case "context_recall":
		return p.ContextRecall
	default:
		return nil
	}
}

// judgeUserMessage renders the per-row judge user prompt.
func judgeUserMessage(question, expectedAnswer, modelAnswer string, contextSnippets []string) string {
	joined := "- No retrieved context"
	if len(contextSnippets) > 0 {
		lines := make([]string, len(contextSnippets))
		for i, s := range contextSnippets {
			lines[i] = "- " + s
		}
		joined = strings.Join(lines, "\n")
	}
	return "Evaluate the assistant's answer against the reference using the provided context." +
		"\n\nQuestion:\n" + strings.TrimSpace(question) +
		"\n\nExpected Answer:\n" + strings.TrimSpace(expectedAnswer) +
		"\n\nAssistant Answer:\n" + strings.TrimSpace(modelAnswer) +
		"\n\nRetrieved Context:\n" + joined +
		"\n\nReturn the JSON object described in the system prompt."
}

// extractJSONObject tolerates markdown code fences and surrounding
// prose, returning the outermost {...} object.
func extractJSONObject(text string) (string, error) {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return "", ragcore.NewError(ragcore.KindUpstream, "empty response from evaluator")
	}

	if strings.HasPrefix(stripped, "```") {
		var lines []string
		for _, line := range strings.Split(stripped, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				continue
			}
			lines = append(lines, line)
		}
		stripped = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	start := strings.Index(stripped, "{")
	end := strings.LastIndex(stripped, "}")
	if start == -1 || end == -1 || end < start {
		return "", ragcore.NewError(ragcore.KindUpstream, "evaluator response did not contain a JSON object")
	}
	return stripped[start : end+1], nil
}

// parseJudgeResponse extracts and decodes the judge's JSON object.
// Unparseable judge output is a hard failure of the evaluation run.
func parseJudgeResponse(raw string) (judgePayload, error) {
	object, err := extractJSONObject(raw)
	if err != nil {
		return judgePayload{}, err
	}
	var payload judgePayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		return judgePayload{}, ragcore.Wrap(ragcore.KindUpstream, "evaluator response could not be parsed", err)
	}
	return payload, nil
}

// clampPercentage clamps a metric value into [0,100].
func clampPercentage(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// normalizeVerdict treats anything outside the closed set as incorrect.
func normalizeVerdict(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := allowedVerdicts[v]; ok {
		return v
	}
	return "incorrect"
}

// accuracyFallback derives the accuracy metric from verdict when the
// judge omitted it: correct=100, partial=50, incorrect=0.
func accuracyFallback(verdict string) float64 {
	switch verdict {
	case "correct":
		return 100
	case "partial":
		return 50
	default:
		return 0
	}
}

func metricBreakdownFor(payload judgePayload, key string) string {
	if payload.MetricBreakdown == nil {
		return ""
	}
	if v, ok := payload.MetricBreakdown[key]; ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func metricLabel(key string) string {
	labels := map[string]string{
		"accuracy":          "accuracy",
		"evaluation_score":  "evaluation score",
		"semantic_accuracy": "semantic accuracy",
		"faithfulness":      "faithfulness",
		"answer_relevancy":  "answer relevancy",
		"content_precision": "content precision",
		"context_recall":    "context recall",
	}
	if l, ok := labels[key]; ok {
		return l
	}
	return key
}

func fmtPercent(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
