package art

// Score computes the sum of squared errors between the target and the
// working grid with the candidate mask added:
//
//	L = sum over pixels of (target - working - mask)^2
//
// Accumulation short-circuits as soon as the partial sum exceeds
// budget + tol: from that point the candidate cannot meet the acceptance
// threshold, whatever the remaining pixels contribute, because the sum only
// grows. The returned loss is partial in that case and ok is false.
//
// Pixels are visited in row-major order so identical inputs always produce
// identical results.
func Score(target, working, mask *Grid, budget, tol float64) (loss float64, ok bool) {
	limit := budget + tol
	for k := range target.Pix {
		d := target.Pix[k] - working.Pix[k] - mask.Pix[k]
		loss += d * d
		if loss > limit {
			return loss, false
		}
	}
	return loss, true
}
