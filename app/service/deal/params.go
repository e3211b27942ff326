package deal

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
	"time"
)

// StandardVolume is the order size all pricing assumes. Not randomized.
const StandardVolume = 1000

type PriceBand struct {
	Opening     float64 `json:"opening"`
	Target      float64 `json:"target"`
	Reservation float64 `json:"reservation"`
}

type DeliveryBand struct {
	Opening     int `json:"opening"`
	Target      int `json:"target"`
	Reservation int `json:"reservation"`
}

type Volume struct {
	Standard int `json:"standard"`
}

// Parameters are the hidden anchor points of one negotiation session.
// Generated once per session, immutable afterward.
type Parameters struct {
	Price    PriceBand    `json:"price"`
	Delivery DeliveryBand `json:"delivery"`
	Volume   Volume       `json:"volume"`
}

// Generate samples session parameters. A non-empty seed is hashed into
// a PRNG seed, so the same seed always reproduces the same parameters.
func Generate(seed string) Parameters {
	var src rand.Source
	if seed != "" {
		h := fnv.New32a()
		_, _ = h.Write([]byte(seed))
		src = rand.NewSource(int64(h.Sum32()))
	} else {
		src = rand.NewSource(time.Now().UnixNano())
	}
	rng := rand.New(src)

	openingPrice := round2(uniform(rng, 30, 50) * 10)
	targetPrice := round2(openingPrice * (1 - uniform(rng, 0.05, 0.08)))
	reservationPrice := round2(openingPrice * (1 - uniform(rng, 0.12, 0.15)))

	openingDelivery := 25 + rng.Intn(21)
	targetDelivery := int(float64(openingDelivery) * 0.85)
	reservationDelivery := int(float64(openingDelivery) * 0.70)

	return Parameters{
		Price: PriceBand{
			Opening:     openingPrice,
			Target:      targetPrice,
			Reservation: reservationPrice,
		},
		Delivery: DeliveryBand{
			Opening:     openingDelivery,
			Target:      targetDelivery,
			Reservation: reservationDelivery,
		},
		Volume: Volume{
			Standard: StandardVolume,
		},
	}
}

// Format renders the parameters as the data block injected into prompts.
func (p Parameters) Format() string {
	return fmt.Sprintf(`
--- NEGOTIATION DATA ---
1. Opening Price: $%s
2. Target Price: $%s
3. Walk-away Price: $%s
4. Standard Volume: %d units
5. Opening Delivery: %d days
`,
		formatPrice(p.Price.Opening),
		formatPrice(p.Price.Target),
		formatPrice(p.Price.Reservation),
		p.Volume.Standard,
		p.Delivery.Opening,
	)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
