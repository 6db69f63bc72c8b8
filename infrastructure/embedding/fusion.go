package embedding

import "math"

// Fuse combines a multimodal item's text and image vectors into one, per
// §4.3. w is the cosine similarity between the two modalities of the same
// item; this is a deliberate design choice, not an optimization, and must
// be reproduced exactly.
func Fuse(text, image []float32) []float32 {
	n := len(text)
	if len(image) < n {
		n = len(image)
	}
	t := text[:n]
	i := image[:n]

	var dot, normT, normI float64
	for k := 0; k < n; k++ {
		tv := float64(t[k])
		iv := float64(i[k])
		dot += tv * iv
		normT += tv * tv
		normI += iv * iv
	}
	normT = math.Sqrt(normT)
	normI = math.Sqrt(normI)

	w := 0.5
	if normT > 0 && normI > 0 {
		w = dot / (normT * normI)
		if w < 0 {
			w = 0
		} else if w > 1 {
			w = 1
		}
	}

	fused := make([]float32, n)
	for k := 0; k < n; k++ {
		fused[k] = float32(w*float64(t[k]) + (1-w)*float64(i[k]))
	}
	return fused
}
