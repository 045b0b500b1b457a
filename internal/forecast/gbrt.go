package forecast

import "sort"

// gbrt is a gradient-boosted ensemble of shallow regression trees fit with
// squared loss and per-sample weights. Splits are found by exact greedy
// search with features scanned in index order, so a fit is deterministic:
// identical inputs always reproduce identical predictions.
type gbrt struct {
	base         float64
	learningRate float64
	trees        []*treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

type gbrtParams struct {
	estimators   int
	learningRate float64
	maxDepth     int
}

const minSplitGain = 1e-12

// fitGBRT trains the ensemble on (feature vector, target, weight) triples.
// Every feature vector must have the same length.
func fitGBRT(features [][]float64, targets, weights []float64, params gbrtParams) *gbrt {
	model := &gbrt{
		base:         weightedMean(targets, weights),
		learningRate: params.learningRate,
	}

	preds := make([]float64, len(targets))
	for i := range preds {
		preds[i] = model.base
	}

	residuals := make([]float64, len(targets))
	indices := make([]int, len(targets))
	f := &treeFitter{features: features, residuals: residuals, weights: weights, maxDepth: params.maxDepth}

	for m := 0; m < params.estimators; m++ {
		for i := range targets {
			residuals[i] = targets[i] - preds[i]
			indices[i] = i
		}
		tree := f.build(indices, 0)
		model.trees = append(model.trees, tree)
		for i := range preds {
			preds[i] += params.learningRate * tree.predict(features[i])
		}
	}
	return model
}

// predict evaluates the ensemble on one feature vector.
func (m *gbrt) predict(x []float64) float64 {
	out := m.base
	for _, tree := range m.trees {
		out += m.learningRate * tree.predict(x)
	}
	return out
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type treeFitter struct {
	features  [][]float64
	residuals []float64
	weights   []float64
	maxDepth  int
}

func (f *treeFitter) build(indices []int, depth int) *treeNode {
	if depth >= f.maxDepth || len(indices) < 2 {
		return f.leafFor(indices)
	}

	feature, threshold, ok := f.bestSplit(indices)
	if !ok {
		return f.leafFor(indices)
	}

	var left, right []int
	for _, i := range indices {
		if f.features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      f.build(left, depth+1),
		right:     f.build(right, depth+1),
	}
}

func (f *treeFitter) leafFor(indices []int) *treeNode {
	var sumW, sumWY float64
	for _, i := range indices {
		sumW += f.weights[i]
		sumWY += f.weights[i] * f.residuals[i]
	}
	value := 0.0
	if sumW > 0 {
		value = sumWY / sumW
	}
	return &treeNode{leaf: true, value: value}
}

// bestSplit scans every feature for the threshold minimizing weighted SSE.
// Candidate thresholds are midpoints between adjacent distinct values.
func (f *treeFitter) bestSplit(indices []int) (int, float64, bool) {
	var totalW, totalWY, totalWYY float64
	for _, i := range indices {
		w, y := f.weights[i], f.residuals[i]
		totalW += w
		totalWY += w * y
		totalWYY += w * y * y
	}
	if totalW <= 0 {
		return 0, 0, false
	}
	parentSSE := totalWYY - totalWY*totalWY/totalW

	nFeatures := len(f.features[indices[0]])
	order := append([]int(nil), indices...)

	bestGain := minSplitGain
	bestFeature, bestThreshold := -1, 0.0

	for feature := 0; feature < nFeatures; feature++ {
		sort.SliceStable(order, func(a, b int) bool {
			return f.features[order[a]][feature] < f.features[order[b]][feature]
		})

		var leftW, leftWY, leftWYY float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			w, y := f.weights[i], f.residuals[i]
			leftW += w
			leftWY += w * y
			leftWYY += w * y * y

			current := f.features[i][feature]
			next := f.features[order[pos+1]][feature]
			if current == next {
				continue
			}
			rightW := totalW - leftW
			if leftW <= 0 || rightW <= 0 {
				continue
			}
			leftSSE := leftWYY - leftWY*leftWY/leftW
			rightWY := totalWY - leftWY
			rightSSE := (totalWYY - leftWYY) - rightWY*rightWY/rightW
			if gain := parentSSE - leftSSE - rightSSE; gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = current + (next-current)/2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func weightedMean(values, weights []float64) float64 {
	var sumW, sumWY float64
	for i, v := range values {
		sumW += weights[i]
		sumWY += weights[i] * v
	}
	if sumW == 0 {
		return 0
	}
	return sumWY / sumW
}
