package precision

// KahanSum is a compensated accumulator. The High tier uses it wherever a
// long sum is formed (per-particle force accumulation, energy totals) so
// that rounding error stays bounded as N grows.
type KahanSum struct {
	sum float64
	c   float64
}

func (k *KahanSum) Add(x float64) {
	y := x - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}

func (k *KahanSum) Value() float64 { return k.sum }

func (k *KahanSum) Reset() { k.sum, k.c = 0, 0 }
