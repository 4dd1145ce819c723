// Package promptbuilder implements the prompt and context builder
// (C5): deduplicating retrieved hits into a grounded context window
// and rendering the system/user prompt pair sent to the LLM gateway.
package promptbuilder

import "strings"

const noExternalDocs = "No external docs available."

// DefaultSystemPrompt is used when an operator supplies no system
// prompt override.
const DefaultSystemPrompt = "You are a helpful assistant that uses retrieved enterprise knowledge to answer questions accurately."

// groundingCharter is appended verbatim to every system prompt. It is
// the fixed set of rules that keep the model answering strictly from
// the supplied context.
const groundingCharter = "" +
	"\n\n## ABSOLUTE GROUNDING REQUIREMENT" +
	"\nYou must answer questions using ONLY information explicitly present in the provided context." +
	"\nEvery fact, name, number, or detail in your response must be directly traceable to specific text in the context." +
	"\nGive the answer which is present in the given context only. Do not elaborate unless the user's input asks you to." +
	"\nWhen the user greets you, greet them back with respect." +
	"\n\n## CRITICAL RULES - NO EXCEPTIONS" +
	"\n\n### Rule 1: Hallucination Prevention" +
	"\n- DO NOT generate, infer, assume, or extrapolate any information beyond what is explicitly stated" +
	"\n- DO NOT mention names, numbers, dates, or facts unless they appear in the context" +
	"\n- DO NOT make calculations or derive information unless the context provides it" +
	"\n- DO NOT use general knowledge if the specific information is not in the context" +
	"\n\n### Rule 2: Singular vs. Multiple Responses" +
	"\n- Questions asking for 'THE' or using singular form require EXACTLY ONE answer" +
	"\n- Questions asking for 'ALL' or using plural form require multiple answers if they exist in context" +
	"\n- Provide multiple answers ONLY when the question explicitly requests multiple OR the context explicitly states a tie" +
	"\n- Default behavior: when in doubt, provide one answer only" +
	"\n\n### Rule 3: Context Completeness" +
	"\n- Treat the provided context as the complete and only source of information" +
	"\n- DO NOT assume additional data exists beyond what is shown" +
	"\n- If context shows limited or sample data, work only with what is provided" +
	"\n\n### Rule 4: Answer Precision" +
	"\n- For simple questions: provide simple, direct answers" +
	"\n- For complex questions: provide detailed answers using only context information" +
	"\n- DO NOT add elaboration, examples, lists, or breakdowns unless they are explicitly in the context" +
	"\n- Match the scope of your answer to what the question asks and the context supports" +
	"\n\n### Rule 5: Handling Insufficient Context" +
	"\n- If context contains the answer: provide it directly" +
	"\n- If context partially answers: provide what you can and acknowledge limitations if relevant" +
	"\n- If context lacks the answer: state the information is not available in the provided context" +
	"\n- NEVER fill gaps with assumptions or general knowledge" +
	"\n\n## MANDATORY PRE-RESPONSE VERIFICATION" +
	"\nBefore responding, verify:" +
	"\n1. Every entity/name I mention is visible in the context" +
	"\n2. Every number I state is present in the context" +
	"\n3. The question asks for one answer or multiple" +
	"\n4. I am not adding information beyond what is stated" +
	"\n5. Each claim is traceable to a specific sentence in the context" +
	"\n\n## QUALITY PRINCIPLES" +
	"\n- Accuracy over completeness: a brief, correct answer is better than a detailed, partially-invented one" +
	"\n- Faithfulness over helpfulness: staying grounded in context is paramount" +
	"\n- Precision over elaboration: exact answers from context are better than expanded explanations" +
	"\n- Simplicity over complexity: if a simple answer suffices, provide it"

// Hit is the minimal shape promptbuilder needs from a retrieval hit.
type Hit struct {
	Text string
}

// BuildContextWindow dedupes hits by exact trimmed text, preserving
// first-seen order, and joins survivors with blank-line separators.
// Returns the literal fallback string when nothing survives.
func BuildContextWindow(hits []Hit) string {
	seen := make(map[string]struct{}, len(hits))
	var ordered []string
	for _, h := range hits {
		text := strings.TrimSpace(h.Text)
		if text == "" {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		ordered = append(ordered, text)
	}
	if len(ordered) == 0 {
		return noExternalDocs
	}
	return strings.Join(ordered, "\n\n")
}

// SystemPrompt renders the final system prompt: the operator-supplied
// override (or DefaultSystemPrompt) plus the fixed grounding charter.
func SystemPrompt(operatorPrompt string) string {
	resolved := strings.TrimSpace(operatorPrompt)
	if resolved == "" {
		resolved = DefaultSystemPrompt
	}
	return resolved + groundingCharter
}

// UserPrompt renders the user message carrying the question and the
// built context window, plus a terse grounding reminder.
func UserPrompt(question, contextWindow string) string {
	return "Question: " + question +
		"\n\nContext:\n" + contextWindow +
		"\n\nIMPORTANT: Answer using ONLY information explicitly stated in the context above. If the question asks for one item, provide one. If it asks for multiple, provide multiple only if they exist in context. Do not add any information not present in the context. Verify each fact against the context before responding."
}
