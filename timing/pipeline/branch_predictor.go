package pipeline

// Resolution is the outcome of resolving a branch in the Decode stage.
type Resolution struct {
	// Evaluated is false when no instruction follows the branch yet, in
	// which case the prediction is not scored.
	Evaluated bool
	// Taken is the actual outcome.
	Taken bool
	// Predicted is the static prediction.
	Predicted bool
	// Correct indicates the prediction matched the outcome.
	Correct bool
}

// StaticPredictor predicts every branch the same way.
type StaticPredictor struct {
	// PredictTaken selects predict-taken instead of predict-not-taken.
	PredictTaken bool
}

// NewStaticPredictor creates a predictor with a fixed direction.
func NewStaticPredictor(predictTaken bool) *StaticPredictor {
	return &StaticPredictor{PredictTaken: predictTaken}
}

// Resolve compares the prediction with the actual outcome. The branch is
// not taken iff the next fetched instruction sits at branch address + 4.
func (p *StaticPredictor) Resolve(branch, next Slot) Resolution {
	res := Resolution{
		Taken:     branch.Address+4 != next.Address,
		Predicted: p.PredictTaken,
	}

	if !next.Fetched() {
		return res
	}

	res.Evaluated = true
	res.Correct = res.Taken == res.Predicted

	return res
}
