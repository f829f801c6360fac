package services

// movingAverageWindow 移動平均のウィンドウ幅。min-periods=1なので
// 観測が10件未満のアイテムでも手持ちの観測すべてで平均が定義される。
const movingAverageWindow = 10

// MovingAverageTracker アイテムごとの在庫系列の末尾移動平均を保持する。
// 学習パスで一度だけ構築され、以後は読み取り専用。
type MovingAverageTracker struct {
	latest map[string]float64
}

// NewMovingAverageTracker 空のトラッカーを作成。
func NewMovingAverageTracker() *MovingAverageTracker {
	return &MovingAverageTracker{latest: make(map[string]float64)}
}

// Update アイテムの時系列（古い順）から末尾ウィンドウの平均を記録する。
// 空の系列は無視する。
func (t *MovingAverageTracker) Update(item string, series []float64) {
	if len(series) == 0 {
		return
	}
	start := len(series) - movingAverageWindow
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, v := range series[start:] {
		sum += v
	}
	t.latest[item] = sum / float64(len(series)-start)
}

// Latest 直近の移動平均を返す。未追跡のアイテムはok=false。
// その場合、呼び出し側は回帰モデル自身の予測値にフォールバックする
// （ゼロや例外には決して落とさず、アンサンブル契約を守る）。
func (t *MovingAverageTracker) Latest(item string) (float64, bool) {
	v, ok := t.latest[item]
	return v, ok
}

// TrackedItems 追跡中のアイテム数を返す。
func (t *MovingAverageTracker) TrackedItems() int {
	return len(t.latest)
}
