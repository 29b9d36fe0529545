package classifier

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a fitted decision tree. Leaves carry the class-1
// probability of the training rows that reached them.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value"`
}

func (n *treeNode) predict(features []float64) float64 {
	for !n.Leaf {
		if features[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func (n *treeNode) countSplits(counts []int) {
	if n == nil || n.Leaf {
		return
	}
	counts[n.Feature]++
	n.Left.countSplits(counts)
	n.Right.countSplits(counts)
}

// Forest is a bagged ensemble of Gini-split decision trees.
type Forest struct {
	Trees       []*treeNode `json:"trees"`
	NumFeatures int         `json:"num_features"`
}

// FitForest trains numTrees trees on bootstrap resamples of rows/labels.
func FitForest(rows [][]float64, labels []int, numTrees, maxDepth int, rng *rand.Rand) *Forest {
	f := &Forest{NumFeatures: len(rows[0])}
	n := len(rows)
	for t := 0; t < numTrees; t++ {
		sampleRows := make([][]float64, n)
		sampleLabels := make([]int, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			sampleRows[i] = rows[j]
			sampleLabels[i] = labels[j]
		}
		f.Trees = append(f.Trees, fitTree(sampleRows, sampleLabels, maxDepth))
	}
	return f
}

// PredictProba returns the ensemble's class-1 probability, averaged over
// all trees.
func (f *Forest) PredictProba(features []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var total float64
	for _, t := range f.Trees {
		total += t.predict(features)
	}
	return total / float64(len(f.Trees))
}

// FeatureImportance reports, per feature, its share of all split decisions
// across the ensemble. Values sum to 1 when any splits exist.
func (f *Forest) FeatureImportance() []float64 {
	counts := make([]int, f.NumFeatures)
	for _, t := range f.Trees {
		t.countSplits(counts)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, f.NumFeatures)
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(total)
	}
	return out
}

func fitTree(rows [][]float64, labels []int, depthLeft int) *treeNode {
	ones := 0
	for _, l := range labels {
		ones += l
	}
	proba := float64(ones) / float64(len(labels))

	if depthLeft == 0 || ones == 0 || ones == len(labels) || len(labels) < 2 {
		return &treeNode{Leaf: true, Value: proba}
	}

	feature, threshold, ok := bestSplit(rows, labels)
	if !ok {
		return &treeNode{Leaf: true, Value: proba}
	}

	var leftRows, rightRows [][]float64
	var leftLabels, rightLabels []int
	for i, r := range rows {
		if r[feature] <= threshold {
			leftRows = append(leftRows, r)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightRows = append(rightRows, r)
			rightLabels = append(rightLabels, labels[i])
		}
	}
	if len(leftRows) == 0 || len(rightRows) == 0 {
		return &treeNode{Leaf: true, Value: proba}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      fitTree(leftRows, leftLabels, depthLeft-1),
		Right:     fitTree(rightRows, rightLabels, depthLeft-1),
	}
}

// bestSplit scans every feature and candidate threshold (midpoints between
// adjacent distinct values) for the lowest weighted Gini impurity.
func bestSplit(rows [][]float64, labels []int) (int, float64, bool) {
	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for f := 0; f < len(rows[0]); f++ {
		values := make([]float64, 0, len(rows))
		for _, r := range rows {
			values = append(values, r[f])
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2
			g := splitGini(rows, labels, f, threshold)
			if g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func splitGini(rows [][]float64, labels []int, feature int, threshold float64) float64 {
	var leftN, leftOnes, rightN, rightOnes int
	for i, r := range rows {
		if r[feature] <= threshold {
			leftN++
			leftOnes += labels[i]
		} else {
			rightN++
			rightOnes += labels[i]
		}
	}
	total := float64(leftN + rightN)
	return float64(leftN)/total*gini(leftOnes, leftN) +
		float64(rightN)/total*gini(rightOnes, rightN)
}

func gini(ones, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(ones) / float64(n)
	return 2 * p * (1 - p)
}

// Scaler standardizes features to zero mean and unit variance, matching
// what the forest was trained on.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

func FitScaler(rows [][]float64) *Scaler {
	numFeatures := len(rows[0])
	s := &Scaler{
		Mean: make([]float64, numFeatures),
		Std:  make([]float64, numFeatures),
	}
	for f := 0; f < numFeatures; f++ {
		var sum float64
		for _, r := range rows {
			sum += r[f]
		}
		s.Mean[f] = sum / float64(len(rows))

		var varSum float64
		for _, r := range rows {
			d := r[f] - s.Mean[f]
			varSum += d * d
		}
		s.Std[f] = math.Sqrt(varSum / float64(len(rows)))
		if s.Std[f] == 0 {
			s.Std[f] = 1
		}
	}
	return s
}

// Transform returns a standardized copy; the input is not modified.
func (s *Scaler) Transform(features []float64) []float64 {
	out := make([]float64, len(features))
	for i, v := range features {
		out[i] = (v - s.Mean[i]) / s.Std[i]
	}
	return out
}

// TransformAll standardizes every row.
func (s *Scaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = s.Transform(r)
	}
	return out
}
