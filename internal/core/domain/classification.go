package domain

const UnknownDepartment = "Unknown"

type ClassificationMethod string

const (
	MethodNone   ClassificationMethod = "none"
	MethodHybrid ClassificationMethod = "hybrid"
	MethodRules  ClassificationMethod = "rules"
)

// LabelScores is what a zero-shot model returns: parallel label/score
// slices in the model's own order.
type LabelScores struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

type ClassificationResult struct {
	PrimaryDepartment string               `json:"primary_department"`
	Labels            []string             `json:"labels"`
	Scores            []float64            `json:"scores"`
	MatchedDepartment string               `json:"matched_department,omitempty"`
	Boosted           bool                 `json:"boosted"`
	Method            ClassificationMethod `json:"method"`
}

func UnknownClassification() ClassificationResult {
	return ClassificationResult{
		PrimaryDepartment: UnknownDepartment,
		Labels:            []string{},
		Scores:            []float64{},
		Method:            MethodNone,
	}
}

// ArgMax returns the index of the first maximum score, or -1 when empty.
func ArgMax(scores []float64) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}
