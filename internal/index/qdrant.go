/**
 * Qdrant-backed vector index
 *
 * Stores chunk vectors in a Qdrant collection over the native gRPC API.
 * Each benchmark configuration gets its own collection so indexes are
 * never reused across configurations.
 */

package index

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantIndex implements VectorIndex on a Qdrant collection.
type QdrantIndex struct {
	points         qdrant.PointsClient
	collections    qdrant.CollectionsClient
	conn           *grpc.ClientConn
	collectionName string
	dims           int
}

// NewQdrantIndex connects to Qdrant and ensures the collection exists
// with the given dimensionality and cosine distance.
func NewQdrantIndex(address, collectionName string, dims int) (*QdrantIndex, error) {
	if address == "" {
		return nil, fmt.Errorf("qdrant address is required")
	}
	if collectionName == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if dims < 1 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", dims)
	}

	conn, err := grpc.Dial(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	idx := &QdrantIndex{
		points:         qdrant.NewPointsClient(conn),
		collections:    qdrant.NewCollectionsClient(conn),
		conn:           conn,
		collectionName: collectionName,
		dims:           dims,
	}

	if err := idx.ensureCollection(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	return idx, nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	listResp, err := q.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, col := range listResp.Collections {
		if col.Name == q.collectionName {
			return nil
		}
	}

	_, err = q.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(q.dims),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// Insert upserts entries as Qdrant points with their text and metadata
// as payload.
func (q *QdrantIndex) Insert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Vector) != q.dims {
			return fmt.Errorf("invalid vector dimensions: expected %d, got %d", q.dims, len(entry.Vector))
		}

		id := entry.ID
		if id == "" {
			id = uuid.New().String()
		}

		payload := map[string]*qdrant.Value{
			"text": {Kind: &qdrant.Value_StringValue{StringValue: entry.Text}},
		}
		for k, v := range entry.Metadata {
			payload[k] = toQdrantValue(v)
		}

		points = append(points, &qdrant.PointStruct{
			Id: &qdrant.PointId{
				PointIdOptions: &qdrant.PointId_Uuid{Uuid: id},
			},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{Data: entry.Vector},
				},
			},
			Payload: payload,
		})
	}

	_, err := q.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	return nil
}

// Search performs similarity search with payload retrieval.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	if len(vector) != q.dims {
		return nil, fmt.Errorf("invalid query vector dimensions: expected %d, got %d", q.dims, len(vector))
	}
	if topK < 1 {
		topK = 1
	}

	results, err := q.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: q.collectionName,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	hits := make([]Hit, 0, len(results.Result))
	for _, result := range results.Result {
		hit := Hit{
			Score:    float64(result.Score),
			Metadata: make(map[string]interface{}),
		}

		if result.Id != nil {
			hit.ID = result.Id.GetUuid()
		}

		for k, v := range result.Payload {
			value := fromQdrantValue(v)
			if k == "text" {
				if text, ok := value.(string); ok {
					hit.Text = text
					continue
				}
			}
			hit.Metadata[k] = value
		}

		hits = append(hits, hit)
	}

	return hits, nil
}

// Drop deletes the collection. Used by the harness to discard a
// configuration's index once its run is recorded.
func (q *QdrantIndex) Drop(ctx context.Context) error {
	_, err := q.collections.Delete(ctx, &qdrant.DeleteCollection{
		CollectionName: q.collectionName,
	})
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

// Close closes the gRPC connection.
func (q *QdrantIndex) Close() error {
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

func toQdrantValue(v interface{}) *qdrant.Value {
	switch val := v.(type) {
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", val)}}
	}
}

func fromQdrantValue(v *qdrant.Value) interface{} {
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	default:
		return nil
	}
}
