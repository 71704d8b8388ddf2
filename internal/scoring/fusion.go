package scoring

// Fusion weights.
const (
	weightDirect   = 0.4
	weightSemantic = 0.4
	weightVector   = 0.2

	// Dampers applied when no job competency was matched lexically.
	dampSemantic = 0.8
	dampVector   = 0.6
)

// Fuse combines the three estimator scores into the final pair score.
//
// Without a lexical match the best statistical signal is damped: the larger
// of vector and semantic at 0.8 when the semantic score is positive, else the
// vector score at 0.6. With a lexical match the three are blended.
func Fuse(direct, vector, semantic float64, hadDirect bool) float64 {
	var score float64
	switch {
	case !hadDirect && semantic > 0:
		score = max(vector, semantic) * dampSemantic
	case !hadDirect:
		score = vector * dampVector
	default:
		score = weightDirect*direct + weightSemantic*semantic + weightVector*vector
	}
	return clampPercentage(score)
}
