package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"warehouse-sim-api/pkg/models"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const (
	statesCollection  = "warehouse_simulations"
	metricsCollection = "warehouse_metrics"

	// ドキュメントストアとして使うためベクトルはプレースホルダの1次元固定値
	storeVectorSize = uint64(1)
)

// SimulationStore シミュレーション状態の永続化インタフェース。
// セッションはこの narrow interface 越しにだけストアへ触る（テストではインメモリ実装を使う）。
type SimulationStore interface {
	SaveSimulationState(ctx context.Context, state models.SimulationState) error
	LatestSimulationState(ctx context.Context, warehouseID string) (*models.SimulationState, error)
	GetWarehouseMetrics(ctx context.Context, warehouseID string) (*models.WarehouseMetrics, error)
	UpdateWarehouseMetrics(ctx context.Context, warehouseID string, metrics models.WarehouseMetrics) error
	CountStates(ctx context.Context) (int, error)
	ListStates(ctx context.Context, warehouseID string, limit int) ([]models.SimulationState, error)
}

// QdrantSimulationStore はQdrantをドキュメントストアとして使うSimulationStore実装。
// 状態は追記専用で保存し、倉庫ごとの指標は固定IDのドキュメントを上書きする。
type QdrantSimulationStore struct {
	pointsClient      qdrant.PointsClient
	collectionsClient qdrant.CollectionsClient
}

// NewQdrantSimulationStore Qdrantへ接続し、必要なコレクションを準備して返します。
// APIキーの有無で、Cloud接続(TLS+APIキー)とローカル接続(非セキュア)を切り替える。
func NewQdrantSimulationStore(qdrantURL string, qdrantAPIKey string) (*QdrantSimulationStore, error) {
	var dialOpts []grpc.DialOption

	if qdrantAPIKey != "" {
		log.Println("Qdrant Cloud (TLS) への接続を準備します...")
		creds := credentials.NewTLS(&tls.Config{})
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(creds))

		authInterceptor := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			ctx = metadata.AppendToOutgoingContext(ctx, "api-key", qdrantAPIKey)
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(authInterceptor))
	} else {
		log.Println("ローカルのQdrant (非TLS) への接続を準備します...")
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(qdrantURL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("QdrantへのgRPCクライアント作成に失敗しました: %w", err)
	}

	store := &QdrantSimulationStore{
		pointsClient:      qdrant.NewPointsClient(conn),
		collectionsClient: qdrant.NewCollectionsClient(conn),
	}

	// Qdrantサーバーが起動するまでリトライしながらコレクションを準備する
	maxRetries := 10
	retryInterval := 2 * time.Second
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := store.ensureCollections(ctx)
		cancel()
		if err == nil {
			log.Println("Qdrantサーバーの準備ができました。")
			return store, nil
		}
		lastErr = err
		log.Printf("Qdrantサーバーの準備確認に失敗しました (試行 %d/%d)。%v後に再試行します...", i+1, maxRetries, retryInterval)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("Qdrantのコレクション準備に失敗しました（リトライ上限到達）: %w", lastErr)
}

// ensureCollections 必要なコレクションが無ければ作成する。
func (s *QdrantSimulationStore) ensureCollections(ctx context.Context) error {
	res, err := s.collectionsClient.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return err
	}
	existing := make(map[string]bool)
	for _, c := range res.GetCollections() {
		existing[c.GetName()] = true
	}
	for _, name := range []string{statesCollection, metricsCollection} {
		if existing[name] {
			continue
		}
		log.Printf("コレクション '%s' が存在しないため、新規作成します。", name)
		_, err := s.collectionsClient.Create(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     storeVectorSize,
						Distance: qdrant.Distance_Dot,
					},
				},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveSimulationState 状態を1件追記する（insert-one）。過去の状態は上書きしない。
func (s *QdrantSimulationStore) SaveSimulationState(ctx context.Context, state models.SimulationState) error {
	payload := map[string]*qdrant.Value{
		"warehouse_id":  stringValue(state.WarehouseID),
		"timestamp":     stringValue(state.Timestamp.UTC().Format(time.RFC3339Nano)),
		"status":        stringValue(string(state.Status)),
		"utilization":   doubleValue(state.Metrics.Utilization),
		"turnover_rate": doubleValue(state.Metrics.TurnoverRate),
		"efficiency":    doubleValue(state.Metrics.Efficiency),
	}
	if state.ActiveMarketEvent != "" {
		payload["active_market_event"] = stringValue(state.ActiveMarketEvent)
	}
	if inventoryJSON, err := json.Marshal(state.Inventory); err == nil {
		payload["inventory"] = stringValue(string(inventoryJSON))
	}
	if state.MarketImpact != nil {
		if impactJSON, err := json.Marshal(state.MarketImpact); err == nil {
			payload["market_impact"] = stringValue(string(impactJSON))
		}
	}

	waitUpsert := true
	_, err := s.pointsClient.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: statesCollection,
		Points:         []*qdrant.PointStruct{newPoint(uuid.New().String(), payload)},
		Wait:           &waitUpsert,
	})
	if err != nil {
		return fmt.Errorf("シミュレーション状態の保存に失敗: %w", err)
	}
	return nil
}

// LatestSimulationState 指定倉庫の最新状態を返す。無ければnil。
// Qdrantはペイロードの時系列ソート取得が難しいため、倉庫IDで絞った上で
// クライアント側でタイムスタンプ降順の先頭を選ぶ。
func (s *QdrantSimulationStore) LatestSimulationState(ctx context.Context, warehouseID string) (*models.SimulationState, error) {
	states, err := s.ListStates(ctx, warehouseID, 1)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, nil
	}
	return &states[0], nil
}

// ListStates 状態一覧をタイムスタンプ降順で返す。warehouseIDが空なら全件対象。
func (s *QdrantSimulationStore) ListStates(ctx context.Context, warehouseID string, limit int) ([]models.SimulationState, error) {
	var filter *qdrant.Filter
	if warehouseID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{keywordCondition("warehouse_id", warehouseID)},
		}
	}

	// スクロール順はポイントID順で時系列とは無関係なので、
	// NextPageOffsetで全ページを読み切ってからクライアント側でソートする
	scrollLimit := uint32(1024)
	withPayload := true
	var offset *qdrant.PointId
	var states []models.SimulationState
	for {
		res, err := s.pointsClient.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: statesCollection,
			Filter:         filter,
			Limit:          &scrollLimit,
			Offset:         offset,
			WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: withPayload}},
		})
		if err != nil {
			return nil, fmt.Errorf("シミュレーション状態の取得に失敗: %w", err)
		}
		for _, point := range res.GetResult() {
			states = append(states, stateFromPayload(point.GetPayload()))
		}
		offset = res.GetNextPageOffset()
		if offset == nil || len(res.GetResult()) == 0 {
			break
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Timestamp.After(states[j].Timestamp) })
	if limit > 0 && len(states) > limit {
		states = states[:limit]
	}
	return states, nil
}

// GetWarehouseMetrics 倉庫の現在指標を返す。未登録ならnil。
func (s *QdrantSimulationStore) GetWarehouseMetrics(ctx context.Context, warehouseID string) (*models.WarehouseMetrics, error) {
	res, err := s.pointsClient.Get(ctx, &qdrant.GetPoints{
		CollectionName: metricsCollection,
		Ids:            []*qdrant.PointId{uuidPointID(metricsDocumentID(warehouseID))},
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("倉庫指標の取得に失敗: %w", err)
	}
	if len(res.GetResult()) == 0 {
		return nil, nil
	}
	payload := res.GetResult()[0].GetPayload()
	return &models.WarehouseMetrics{
		Utilization:  floatFromPayload(payload, "utilization"),
		TurnoverRate: floatFromPayload(payload, "turnover_rate"),
		Efficiency:   floatFromPayload(payload, "efficiency"),
	}, nil
}

// UpdateWarehouseMetrics 倉庫指標ドキュメントを所定IDで上書きする（update-one-by-id）。
func (s *QdrantSimulationStore) UpdateWarehouseMetrics(ctx context.Context, warehouseID string, metrics models.WarehouseMetrics) error {
	payload := map[string]*qdrant.Value{
		"warehouse_id":  stringValue(warehouseID),
		"utilization":   doubleValue(metrics.Utilization),
		"turnover_rate": doubleValue(metrics.TurnoverRate),
		"efficiency":    doubleValue(metrics.Efficiency),
		"updated_at":    stringValue(time.Now().UTC().Format(time.RFC3339Nano)),
	}
	waitUpsert := true
	_, err := s.pointsClient.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: metricsCollection,
		Points:         []*qdrant.PointStruct{newPoint(metricsDocumentID(warehouseID), payload)},
		Wait:           &waitUpsert,
	})
	if err != nil {
		return fmt.Errorf("倉庫指標の更新に失敗: %w", err)
	}
	return nil
}

// CountStates 保存済み状態の件数を返す。
func (s *QdrantSimulationStore) CountStates(ctx context.Context) (int, error) {
	exact := true
	res, err := s.pointsClient.Count(ctx, &qdrant.CountPoints{
		CollectionName: statesCollection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("シミュレーション状態のカウントに失敗: %w", err)
	}
	return int(res.GetResult().GetCount()), nil
}

// metricsDocumentID 倉庫IDから決定的なドキュメントIDを作る。
func metricsDocumentID(warehouseID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("warehouse_metrics:"+warehouseID)).String()
}

func stateFromPayload(payload map[string]*qdrant.Value) models.SimulationState {
	state := models.SimulationState{
		WarehouseID:       stringFromPayload(payload, "warehouse_id"),
		ActiveMarketEvent: stringFromPayload(payload, "active_market_event"),
		Status:            models.SimulationStatus(stringFromPayload(payload, "status")),
		Metrics: models.WarehouseMetrics{
			Utilization:  floatFromPayload(payload, "utilization"),
			TurnoverRate: floatFromPayload(payload, "turnover_rate"),
			Efficiency:   floatFromPayload(payload, "efficiency"),
		},
	}
	if ts, err := time.Parse(time.RFC3339Nano, stringFromPayload(payload, "timestamp")); err == nil {
		state.Timestamp = ts
	}
	if inventoryJSON := stringFromPayload(payload, "inventory"); inventoryJSON != "" {
		var inventory map[string]int
		if err := json.Unmarshal([]byte(inventoryJSON), &inventory); err == nil {
			state.Inventory = inventory
		}
	}
	if impactJSON := stringFromPayload(payload, "market_impact"); impactJSON != "" {
		var impact models.MarketImpact
		if err := json.Unmarshal([]byte(impactJSON), &impact); err == nil {
			state.MarketImpact = &impact
		}
	}
	return state
}

func newPoint(id string, payload map[string]*qdrant.Value) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id: uuidPointID(id),
		Vectors: &qdrant.Vectors{
			VectorsOptions: &qdrant.Vectors_Vector{
				Vector: &qdrant.Vector{Data: []float32{1.0}},
			},
		},
		Payload: payload,
	}
}

func uuidPointID(id string) *qdrant.PointId {
	return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}}
}

func keywordCondition(key, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func stringValue(v string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
}

func doubleValue(v float64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
}

func stringFromPayload(payload map[string]*qdrant.Value, key string) string {
	if val, ok := payload[key]; ok && val != nil {
		return val.GetStringValue()
	}
	return ""
}

func floatFromPayload(payload map[string]*qdrant.Value, key string) float64 {
	if val, ok := payload[key]; ok && val != nil {
		if d := val.GetDoubleValue(); d != 0 {
			return d
		}
		if i := val.GetIntegerValue(); i != 0 {
			return float64(i)
		}
	}
	return 0
}
