package eval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/chatengine"
	"github.com/krira-ai/ragcore/embedding"
	"github.com/krira-ai/ragcore/llmgateway"
	"github.com/krira-ai/ragcore/vectorstore"
)

type noRetrievalStore struct{}

func (noRetrievalStore) Upsert(ctx context.Context, backend vectorstore.Backend, dataset vectorstore.DatasetInfo, vectors []vectorstore.Vector, model string, cfg vectorstore.Config) (int, error) {
	return 0, nil
}
func (noRetrievalStore) Query(ctx context.Context, backend vectorstore.Backend, queryVector []float32, model string, topK int, cfg vectorstore.Config, datasetIDs []string) ([]vectorstore.Hit, error) {
	return nil, nil
}
func (noRetrievalStore) Close() error { return nil }

func newHarness(t *testing.T, judgeVerdict string) *Engine {
	t.Helper()

	embedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{0.1}, "index": 0}},
		})
	}))
	t.Cleanup(embedSrv.Close)

	answerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "Go is a programming language."}}},
		})
	}))
	t.Cleanup(answerSrv.Close)

	judgeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := `{"verdict":"` + judgeVerdict + `","evaluation_score":90,"semantic_accuracy":85,"faithfulness":95,` +
			`"answer_relevancy":88,"content_precision":80,"context_recall":75,"reasoning":"solid answer",` +
			`"metric_breakdown":{"faithfulness":"grounded in context"}}`
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": body}}},
		})
	}))
	t.Cleanup(judgeSrv.Close)

	embedder := embedding.New(embedding.Config{BaseURL: embedSrv.URL, APIKey: "key"})
	answerLLM := llmgateway.New(llmgateway.Config{BaseURL: answerSrv.URL, APIKey: "key", MaxTokens: 512})
	judgeLLM := llmgateway.New(llmgateway.Config{BaseURL: judgeSrv.URL, APIKey: "key"})

	chat := chatengine.New(embedder, noRetrievalStore{}, answerLLM)
	return New(chat, judgeLLM, "openai/gpt-4.1")
}

func testPipeline() ragcore.Pipeline {
	return ragcore.Pipeline{LLM: ragcore.LLMConfig{Provider: "openai", Model: "gpt-4.1"}}
}

func TestRunPreservesRowOrder(t *testing.T) {
	e := newHarness(t, "correct")
	rows := []Row{
		{Number: "1", Question: "What is Go?", ExpectedAnswer: "A programming language"},
		{Number: "2", Question: "What is Rust?", ExpectedAnswer: "Another language"},
		{Number: "3", Question: "What is Python?", ExpectedAnswer: "Yet another language"},
	}

	result, err := e.Run(context.Background(), Request{Pipeline: testPipeline(), Rows: rows, Concurrency: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(result.Rows))
	}
	for i, want := range []string{"1", "2", "3"} {
		if result.Rows[i].QuestionNumber != want {
			t.Errorf("Rows[%d].QuestionNumber = %q, want %q", i, result.Rows[i].QuestionNumber, want)
		}
	}
}

func TestRunRecomputesAccuracyFromVerdictCounts(t *testing.T) {
	e := newHarness(t, "partial")
	rows := []Row{
		{Number: "1", Question: "q1", ExpectedAnswer: "a1"},
		{Number: "2", Question: "q2", ExpectedAnswer: "a2"},
	}

	result, err := e.Run(context.Background(), Request{Pipeline: testPipeline(), Rows: rows})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// All rows verdict "partial" -> 0 correct -> accuracy aggregate 0%,
	// even though per-row accuracy fallback would be 50.
	if result.MetricAverages["accuracy"] != 0 {
		t.Errorf("aggregate accuracy = %v, want 0", result.MetricAverages["accuracy"])
	}
	for _, row := range result.Rows {
		if row.Metrics["accuracy"] != 50 {
			t.Errorf("row accuracy fallback = %v, want 50", row.Metrics["accuracy"])
		}
	}
}

func TestRunAllCorrectYieldsFullAccuracy(t *testing.T) {
	e := newHarness(t, "correct")
	rows := []Row{
		{Number: "1", Question: "q1", ExpectedAnswer: "a1"},
		{Number: "2", Question: "q2", ExpectedAnswer: "a2"},
	}

	result, err := e.Run(context.Background(), Request{Pipeline: testPipeline(), Rows: rows})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.MetricAverages["accuracy"] != 100 {
		t.Errorf("aggregate accuracy = %v, want 100", result.MetricAverages["accuracy"])
	}
	if result.Justifications["faithfulness"] == "" {
		t.Error("expected a faithfulness justification")
	}
}

func TestRunRejectsEmptyRows(t *testing.T) {
	e := newHarness(t, "correct")
	if _, err := e.Run(context.Background(), Request{Pipeline: testPipeline()}); err == nil {
		t.Fatal("expected error for empty row set")
	}
}

func TestRunFailsHardOnUnparseableJudgeOutput(t *testing.T) {
	embedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{0.1}, "index": 0}},
		})
	}))
	defer embedSrv.Close()
	answerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "an answer"}}},
		})
	}))
	defer answerSrv.Close()
	judgeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "not json at all"}}},
		})
	}))
	defer judgeSrv.Close()

	embedder := embedding.New(embedding.Config{BaseURL: embedSrv.URL, APIKey: "key"})
	answerLLM := llmgateway.New(llmgateway.Config{BaseURL: answerSrv.URL, APIKey: "key"})
	judgeLLM := llmgateway.New(llmgateway.Config{BaseURL: judgeSrv.URL, APIKey: "key"})
	chat := chatengine.New(embedder, noRetrievalStore{}, answerLLM)
	e := New(chat, judgeLLM, "openai/gpt-4.1")

	_, err := e.Run(context.Background(), Request{Pipeline: testPipeline(), Rows: []Row{{Number: "1", Question: "q", ExpectedAnswer: "a"}}})
	if err == nil {
		t.Fatal("expected hard failure for unparseable judge output")
	}
}
