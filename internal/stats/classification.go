package stats

import "fmt"

// ConfusionMatrix counts binary outcomes indexed [actual][predicted].
// Labels outside {0, 1} are rejected.
func ConfusionMatrix(actual, predicted []int) ([2][2]int, error) {
	var m [2][2]int
	if len(actual) != len(predicted) {
		return m, fmt.Errorf("length mismatch: %d actual, %d predicted", len(actual), len(predicted))
	}
	for i := range actual {
		a, p := actual[i], predicted[i]
		if a < 0 || a > 1 || p < 0 || p > 1 {
			return m, fmt.Errorf("non-binary label at %d: actual=%d predicted=%d", i, a, p)
		}
		m[a][p]++
	}
	return m, nil
}

// Accuracy returns the share of correct predictions in a confusion matrix
func Accuracy(m [2][2]int) float64 {
	total := m[0][0] + m[0][1] + m[1][0] + m[1][1]
	return Ratio(m[0][0]+m[1][1], total)
}

// PrecisionRecallF1 returns the metrics of one class of a confusion matrix
// together with its support (number of actual members)
func PrecisionRecallF1(m [2][2]int, class int) (precision, recall, f1 float64, support int) {
	other := 1 - class
	tp := m[class][class]
	fp := m[other][class]
	fn := m[class][other]

	precision = Ratio(tp, tp+fp)
	recall = Ratio(tp, tp+fn)
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1, tp + fn
}
