package causal

import (
	"github.com/chewxy/math32"
	rng "github.com/leesper/go_rng"
)

func findPadding(inputX, inputY, kernelX, kernelY int) []int {
	return []int{
		(inputX - 1 - inputX + kernelX) / 2,
		(inputY - 1 - inputY + kernelY) / 2,
	}
}

// glorotU32 fills backing with Glorot-uniform values drawn from the seeded
// stream. The same stream feeds every kernel in build order, so one seed
// pins the whole network.
func glorotU32(rnd *rng.UniformGenerator, backing []float32, fanIn, fanOut int) {
	limit := math32.Sqrt(6.0 / float32(fanIn+fanOut))
	for i := range backing {
		backing[i] = rnd.Float32Range(-limit, limit)
	}
}
