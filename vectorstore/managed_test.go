package vectorstore

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/krira-ai/ragcore"
)

func TestIsMessageTooLarge(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"too large phrase", errors.New("rpc error: message too large"), true},
		{"resource exhausted code", errors.New("rpc error: code = ResourceExhausted desc = grpc: received message larger than max"), true},
		{"message size phrase", errors.New("exceeded message size limit"), true},
		{"unrelated error", errors.New("collection not found"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isMessageTooLarge(c.err); got != c.want {
				t.Errorf("isMessageTooLarge(%q) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}

// qdrantTestAddr returns the gRPC address of a live Qdrant instance to
// exercise against, or "" if none is configured/reachable. ensureCollection
// and upsertBatches talk to a concrete *qdrant.Client with no interface
// seam, so the fail-closed and batch-halving paths can only be exercised
// against a real server, mirroring how altavision_eval_test.go gates its
// Ollama-backed cases on a reachability probe rather than mocking the
// dependency.
func qdrantTestAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("RAGCORE_QDRANT_TEST_ADDR")
	if addr == "" {
		t.Skip("RAGCORE_QDRANT_TEST_ADDR not set; skipping managed vector store integration test")
	}
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Skipf("qdrant not reachable at %s: %v", addr, err)
	}
	conn.Close()
	return addr
}

func TestManagedStoreEnsureCollectionFailsClosed(t *testing.T) {
	addr := qdrantTestAddr(t)
	store, err := NewManagedStore(addr, "")
	if err != nil {
		t.Fatalf("NewManagedStore() error = %v", err)
	}
	defer store.Close()

	_, err = store.ensureCollection(context.Background(), "ragcore-test-missing-collection", 4)
	if err == nil {
		t.Fatal("expected error for a collection that does not exist")
	}
	if ragcore.KindOf(err) != ragcore.KindNotFound {
		t.Errorf("KindOf(err) = %v, want KindNotFound", ragcore.KindOf(err))
	}
}

func TestManagedStoreUpsertRejectsMissingIndexName(t *testing.T) {
	addr := qdrantTestAddr(t)
	store, err := NewManagedStore(addr, "")
	if err != nil {
		t.Fatalf("NewManagedStore() error = %v", err)
	}
	defer store.Close()

	vectors := []Vector{{ChunkOrder: 0, Values: []float32{1, 0}, Text: "alpha"}}
	_, err = store.Upsert(context.Background(), DatasetInfo{ID: "ds-1"}, vectors, "openai-small", Config{})
	if err == nil {
		t.Fatal("expected error when no index name is configured")
	}
	if ragcore.KindOf(err) != ragcore.KindServiceConfig {
		t.Errorf("KindOf(err) = %v, want KindServiceConfig", ragcore.KindOf(err))
	}
}

// upsertBatches' halving recursion is reachable only through sendBatch's
// live gRPC Upsert call: pointing RAGCORE_QDRANT_TEST_ADDR at a Qdrant
// instance configured with a small max message size and an existing
// collection, then upserting more than managedBatchSize oversized vectors,
// forces the "too large" branch and exercises the split end to end.
// isMessageTooLarge above covers the branch's classification logic
// independent of that server-side setup.
func TestManagedStoreUpsertBatchesSplitsOnOversizedBatch(t *testing.T) {
	addr := qdrantTestAddr(t)
	collection := os.Getenv("RAGCORE_QDRANT_TEST_COLLECTION")
	if collection == "" {
		t.Skip("RAGCORE_QDRANT_TEST_COLLECTION not set; skipping batch-split integration test")
	}

	store, err := NewManagedStore(addr, "")
	if err != nil {
		t.Fatalf("NewManagedStore() error = %v", err)
	}
	defer store.Close()

	vectors := make([]Vector, managedBatchSize+1)
	for i := range vectors {
		vectors[i] = Vector{ChunkOrder: i, Values: []float32{float32(i), 0, 0, 0}, Text: "chunk"}
	}

	n, err := store.Upsert(context.Background(), DatasetInfo{ID: "ds-batch-split"}, vectors, "openai-small", Config{IndexName: collection})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if n != len(vectors) {
		t.Errorf("Upsert() wrote %d points, want %d", n, len(vectors))
	}
}
