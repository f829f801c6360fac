package services

import (
	"fmt"
	"math/rand"
	"sort"

	"warehouse-sim-api/pkg/models"
)

// RandomForest バギングした回帰木のアンサンブル。
// シードを固定すれば学習・予測とも決定的になる。
type RandomForest struct {
	NumTrees    int
	MaxDepth    int
	MinLeafSize int
	Seed        int64
	trees       []*treeNode
	importances []float64
	numFeatures int
}

// NewRandomForest 既定ハイパーパラメータ（100本、シード42）のフォレストを作成。
func NewRandomForest() *RandomForest {
	return &RandomForest{
		NumTrees:    100,
		MaxDepth:    12,
		MinLeafSize: 2,
		Seed:        42,
	}
}

type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) isLeaf() bool { return n.left == nil && n.right == nil }

// Train 特徴量行列とターゲットでフォレストを学習する。
// ターゲットが退化している（空、または分散ゼロ）場合はModelTrainingError。
func (f *RandomForest) Train(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return &models.ModelTrainingError{Reason: "empty training set"}
	}
	if len(features) != len(targets) {
		return &models.ModelTrainingError{Reason: fmt.Sprintf("features=%d targets=%d", len(features), len(targets))}
	}
	f.numFeatures = len(features[0])
	for i, row := range features {
		if len(row) != f.numFeatures {
			return &models.ModelTrainingError{Reason: fmt.Sprintf("ragged feature row at index %d", i)}
		}
	}
	if variance(targets) == 0 {
		return &models.ModelTrainingError{Reason: "degenerate target: zero variance"}
	}

	rng := rand.New(rand.NewSource(f.Seed))
	n := len(targets)
	f.trees = make([]*treeNode, 0, f.NumTrees)
	f.importances = make([]float64, f.numFeatures)

	for t := 0; t < f.NumTrees; t++ {
		// ブートストラップ標本（復元抽出）
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		tree := f.buildTree(features, targets, indices, 0, float64(n))
		f.trees = append(f.trees, tree)
	}

	// 重要度をフォレスト全体で正規化
	var total float64
	for _, v := range f.importances {
		total += v
	}
	if total > 0 {
		for i := range f.importances {
			f.importances[i] /= total
		}
	}
	return nil
}

// Predict 各行の予測値（木の平均）を返す。
func (f *RandomForest) Predict(features [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, fmt.Errorf("forest is not trained")
	}
	out := make([]float64, len(features))
	for i, row := range features {
		if len(row) != f.numFeatures {
			return nil, fmt.Errorf("expected %d features, got %d", f.numFeatures, len(row))
		}
		var sum float64
		for _, tree := range f.trees {
			sum += predictOne(tree, row)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}

// FeatureImportances 学習で得た特徴量重要度（不純度減少の正規化値）を返す。
func (f *RandomForest) FeatureImportances() []float64 {
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out
}

// buildTree は分散削減を分割基準とするCART回帰木をindices上に構築する。
func (f *RandomForest) buildTree(features [][]float64, targets []float64, indices []int, depth int, totalSamples float64) *treeNode {
	node := &treeNode{value: meanAt(targets, indices)}
	if depth >= f.MaxDepth || len(indices) < 2*f.MinLeafSize {
		return node
	}

	parentImpurity := varianceAt(targets, indices)
	if parentImpurity == 0 {
		return node
	}

	bestFeature := -1
	var bestThreshold, bestScore float64
	var bestLeft, bestRight []int

	for feat := 0; feat < f.numFeatures; feat++ {
		thresholds := candidateThresholds(features, indices, feat)
		for _, th := range thresholds {
			var left, right []int
			for _, idx := range indices {
				if features[idx][feat] <= th {
					left = append(left, idx)
				} else {
					right = append(right, idx)
				}
			}
			if len(left) < f.MinLeafSize || len(right) < f.MinLeafSize {
				continue
			}
			nl := float64(len(left))
			nr := float64(len(right))
			nTot := nl + nr
			score := parentImpurity - (nl/nTot)*varianceAt(targets, left) - (nr/nTot)*varianceAt(targets, right)
			if score > bestScore {
				bestScore = score
				bestFeature = feat
				bestThreshold = th
				bestLeft = left
				bestRight = right
			}
		}
	}

	if bestFeature < 0 {
		return node
	}

	// 重み付き不純度減少を特徴量重要度として加算
	f.importances[bestFeature] += (float64(len(indices)) / totalSamples) * bestScore

	node.feature = bestFeature
	node.threshold = bestThreshold
	node.left = f.buildTree(features, targets, bestLeft, depth+1, totalSamples)
	node.right = f.buildTree(features, targets, bestRight, depth+1, totalSamples)
	return node
}

// candidateThresholds returns midpoints between consecutive sorted unique values.
func candidateThresholds(features [][]float64, indices []int, feat int) []float64 {
	vals := make([]float64, 0, len(indices))
	for _, idx := range indices {
		vals = append(vals, features[idx][feat])
	}
	sort.Float64s(vals)
	out := make([]float64, 0, len(vals))
	for i := 1; i < len(vals); i++ {
		if vals[i] != vals[i-1] {
			out = append(out, (vals[i]+vals[i-1])/2)
		}
	}
	return out
}

func predictOne(node *treeNode, row []float64) float64 {
	for !node.isLeaf() {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func meanAt(targets []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, idx := range indices {
		sum += targets[idx]
	}
	return sum / float64(len(indices))
}

func varianceAt(targets []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	mean := meanAt(targets, indices)
	var sum float64
	for _, idx := range indices {
		d := targets[idx] - mean
		sum += d * d
	}
	return sum / float64(len(indices))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
