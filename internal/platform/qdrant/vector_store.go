package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/pkg/ctxutil"
)

const maxErrorBodyBytes = 1024

var pointIDNamespaceUUID = uuid.MustParse("8c10f5a2-41d6-4e9b-9b61-53a1c0d2b7ce")

// Point is one vector with its payload, keyed by a caller-chosen ID
// that is stable across re-ingestion.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Match is one search hit with its payload.
type Match struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// VectorStore is the Qdrant client used by ingestion and retrieval.
// Each curriculum gets its own collection, so collection names flow
// through every call.
type VectorStore interface {
	EnsureCollection(ctx context.Context, collection string) error
	CollectionExists(ctx context.Context, collection string) (bool, error)
	DeleteCollection(ctx context.Context, collection string) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Match, error)
	Count(ctx context.Context, collection string) (int, error)
}

type vectorStore struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantSearchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func NewVectorStore(log *logger.Logger, cfg Config) (VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	s := &vectorStore{
		log:     log.With("service", "QdrantVectorStore"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	if err := s.verifyReady(context.Background()); err != nil {
		return nil, err
	}

	log.Info(
		"Qdrant vector store ready",
		"url", s.baseURL,
		"vector_dim", cfg.VectorDim,
	)
	return s, nil
}

func (s *vectorStore) EnsureCollection(ctx context.Context, collection string) error {
	const op = "ensure_collection"
	name := strings.TrimSpace(collection)
	if name == "" {
		return opErr(op, OperationErrorValidation, "collection name required", nil)
	}

	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     s.cfg.VectorDim,
			"distance": "Cosine",
		},
	}
	return s.doJSON(ctx, op, http.MethodPut, "/collections/"+name, req, nil)
}

func (s *vectorStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	const op = "collection_exists"
	name := strings.TrimSpace(collection)
	if name == "" {
		return false, opErr(op, OperationErrorValidation, "collection name required", nil)
	}

	err := s.doJSON(ctx, op, http.MethodGet, "/collections/"+name, nil, nil)
	if err == nil {
		return true, nil
	}
	var typed *OperationError
	if errors.As(err, &typed) && typed.Code == OperationErrorNotFound {
		return false, nil
	}
	return false, err
}

func (s *vectorStore) DeleteCollection(ctx context.Context, collection string) error {
	const op = "delete_collection"
	name := strings.TrimSpace(collection)
	if name == "" {
		return opErr(op, OperationErrorValidation, "collection name required", nil)
	}

	err := s.doJSON(ctx, op, http.MethodDelete, "/collections/"+name, nil, nil)
	if err == nil {
		return nil
	}
	// Deleting an absent collection is a no-op.
	var typed *OperationError
	if errors.As(err, &typed) && typed.Code == OperationErrorNotFound {
		return nil
	}
	return err
}

func (s *vectorStore) Upsert(ctx context.Context, collection string, points []Point) error {
	const op = "upsert"
	name := strings.TrimSpace(collection)
	if name == "" {
		return opErr(op, OperationErrorValidation, "collection name required", nil)
	}
	if len(points) == 0 {
		return nil
	}

	body := make([]map[string]any, 0, len(points))
	for _, p := range points {
		pointID := strings.TrimSpace(p.ID)
		if pointID == "" {
			return opErr(op, OperationErrorValidation, "point id is required", nil)
		}
		if len(p.Vector) == 0 {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("point %q has empty vector", pointID), nil)
		}
		if s.cfg.VectorDim > 0 && len(p.Vector) != s.cfg.VectorDim {
			return opErr(
				op,
				OperationErrorValidation,
				fmt.Sprintf(
					"point %q dimension mismatch: expected=%d got=%d",
					pointID,
					s.cfg.VectorDim,
					len(p.Vector),
				),
				nil,
			)
		}
		payload := clonePayload(p.Payload)
		payload["point_key"] = pointID
		body = append(body, map[string]any{
			"id":      s.pointID(name, pointID),
			"vector":  p.Vector,
			"payload": payload,
		})
	}

	req := map[string]any{"points": body}
	return s.doJSON(ctx, op, http.MethodPut, "/collections/"+name+"/points?wait=true", req, nil)
}

func (s *vectorStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]Match, error) {
	const op = "search"
	name := strings.TrimSpace(collection)
	if name == "" {
		return nil, opErr(op, OperationErrorValidation, "collection name required", nil)
	}
	if len(vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if s.cfg.VectorDim > 0 && len(vector) != s.cfg.VectorDim {
		return nil, opErr(
			op,
			OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, len(vector)),
			nil,
		)
	}
	if topK <= 0 {
		topK = 10
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	}
	var rawResults []qdrantSearchResultItem
	if err := s.doJSON(
		ctx,
		op,
		http.MethodPost,
		"/collections/"+name+"/points/search",
		req,
		&rawResults,
	); err != nil {
		return nil, err
	}

	out := make([]Match, 0, len(rawResults))
	for _, item := range rawResults {
		out = append(out, Match{
			ID:      extractPointKey(item),
			Score:   item.Score,
			Payload: item.Payload,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func (s *vectorStore) Count(ctx context.Context, collection string) (int, error) {
	const op = "count"
	name := strings.TrimSpace(collection)
	if name == "" {
		return 0, opErr(op, OperationErrorValidation, "collection name required", nil)
	}

	var result struct {
		Count int `json:"count"`
	}
	req := map[string]any{"exact": true}
	if err := s.doJSON(
		ctx,
		op,
		http.MethodPost,
		"/collections/"+name+"/points/count",
		req,
		&result,
	); err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (s *vectorStore) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	return nil
}

func (s *vectorStore) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode == http.StatusNotFound {
		return &OperationError{
			Code:       OperationErrorNotFound,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func clonePayload(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// pointID derives a deterministic UUID so re-ingesting the same chunk
// overwrites the old point instead of duplicating it.
func (s *vectorStore) pointID(collection, pointKey string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(collection+"|"+pointKey)).String()
}

func extractPointKey(item qdrantSearchResultItem) string {
	if key, ok := item.Payload["point_key"].(string); ok {
		key = strings.TrimSpace(key)
		if key != "" {
			return key
		}
	}
	var idString string
	if err := json.Unmarshal(item.ID, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	return strings.TrimSpace(string(item.ID))
}
