package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/krira-ai/ragcore"
)

const managedBatchSize = 100

// ManagedStore adapts the Qdrant gRPC client to the managed backend
// contract. Collections are addressed by index name; a vector store
// config's namespace is folded into the point id since Qdrant has no
// native namespace concept.
type ManagedStore struct {
	client *qdrant.Client
}

// NewManagedStore dials a Qdrant instance. addr is host:port (gRPC).
func NewManagedStore(addr, apiKey string) (*ManagedStore, error) {
	host, port, err := splitHostPort(addr)
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindServiceConfig, "invalid qdrant address", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindServiceConfig, "failed to create qdrant client", err)
	}
	return &ManagedStore{client: client}, nil
}

func splitHostPort(addr string) (string, int, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return addr, 6334, nil
	}
	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return addr[:idx], port, nil
}

func (m *ManagedStore) Close() error {
	return m.client.Close()
}

// ensureCollection returns the collection's declared vector dimension,
// failing closed when the collection does not already exist. Index
// creation is an out-of-band operator action, not something a write
// request performs implicitly.
func (m *ManagedStore) ensureCollection(ctx context.Context, name string, dimension uint64) (uint64, error) {
	exists, err := m.client.CollectionExists(ctx, name)
	if err != nil {
		return 0, ragcore.Wrap(ragcore.KindUpstream, "failed to check vector index existence", err)
	}
	if !exists {
		return 0, ragcore.NewError(ragcore.KindNotFound, fmt.Sprintf("vector index %q does not exist", name))
	}

	info, err := m.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return 0, ragcore.Wrap(ragcore.KindUpstream, "failed to read vector index info", err)
	}
	declared := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	return declared, nil
}

// Upsert writes vectors in adaptive batches, halving the batch on a
// "message too large" class upstream error, matching
// original_source's _upsert_pinecone::send_batch.
func (m *ManagedStore) Upsert(ctx context.Context, dataset DatasetInfo, vectors []Vector, model string, cfg Config) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	if cfg.IndexName == "" {
		return 0, ragcore.NewError(ragcore.KindServiceConfig, "managed vector store requires an index name")
	}

	dim := uint64(len(vectors[0].Values))
	declared, err := m.ensureCollection(ctx, cfg.IndexName, dim)
	if err != nil {
		return 0, err
	}
	if declared != 0 && declared != dim {
		return 0, ragcore.NewError(ragcore.KindValidation,
			fmt.Sprintf("embedding dimension %d does not match vector index dimension %d", dim, declared))
	}

	points := make([]*qdrant.PointStruct, 0, len(vectors))
	for _, v := range vectors {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(deterministicPointUUID(pointID(cfg.Namespace, dataset.ID, v.ChunkOrder))),
			Vectors: qdrant.NewVectors(v.Values...),
			Payload: qdrant.NewValueMap(stringMapToAny(metadataFor(dataset, model, v.ChunkOrder, v.Text))),
		})
	}

	written, err := m.upsertBatches(ctx, cfg.IndexName, points)
	if err != nil {
		return written, err
	}
	return written, nil
}

func (m *ManagedStore) upsertBatches(ctx context.Context, collection string, points []*qdrant.PointStruct) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	if len(points) <= managedBatchSize {
		if err := m.sendBatch(ctx, collection, points); err != nil {
			if isMessageTooLarge(err) && len(points) > 1 {
				mid := len(points) / 2
				a, errA := m.upsertBatches(ctx, collection, points[:mid])
				if errA != nil {
					return a, errA
				}
				b, errB := m.upsertBatches(ctx, collection, points[mid:])
				return a + b, errB
			}
			return 0, err
		}
		return len(points), nil
	}

	total := 0
	for i := 0; i < len(points); i += managedBatchSize {
		end := i + managedBatchSize
		if end > len(points) {
			end = len(points)
		}
		n, err := m.upsertBatches(ctx, collection, points[i:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (m *ManagedStore) sendBatch(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	_, err := m.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return ragcore.Wrap(ragcore.KindUpstream, "vector index upsert failed", err)
	}
	return nil
}

// isMessageTooLarge inspects an upstream error for the gRPC
// resource-exhausted / payload-too-large signature.
func isMessageTooLarge(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too large") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "message size")
}

func (m *ManagedStore) Query(ctx context.Context, queryVector []float32, model string, topK int, cfg Config, datasetIDs []string) ([]Hit, error) {
	if cfg.IndexName == "" {
		return nil, ragcore.NewError(ragcore.KindServiceConfig, "managed vector store requires an index name")
	}

	limit := uint64(topK)
	query := &qdrant.QueryPoints{
		CollectionName: cfg.IndexName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(datasetIDs) > 0 {
		query.Filter = datasetIDFilter(datasetIDs)
	}

	results, err := m.client.Query(ctx, query)
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindUpstream, "vector index query failed", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		score := float64(r.GetScore())
		hit := Hit{Metadata: map[string]string{}}
		if p := r.GetPayload(); p != nil {
			for k, v := range p {
				hit.Metadata[k] = v.GetStringValue()
			}
			hit.Text = hit.Metadata["chunk_text"]
		}
		hit.Score = &score
		hits = append(hits, hit)
	}
	return hits, nil
}

// datasetIDFilter restricts a query to the given dataset ids via an
// OR ("should") match on the dataset_id payload field.
func datasetIDFilter(datasetIDs []string) *qdrant.Filter {
	should := make([]*qdrant.Condition, 0, len(datasetIDs))
	for _, id := range datasetIDs {
		should = append(should, qdrant.NewMatch("dataset_id", id))
	}
	return &qdrant.Filter{Should: should}
}

// deterministicPointUUID maps a deterministic string point id onto a
// UUID, since Qdrant point ids must be an integer or UUID.
// Using UUIDv5 over a fixed namespace keeps the mapping stable across
// upserts so a replacing upsert overwrites the same point.
func deterministicPointUUID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func stringMapToAny(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
