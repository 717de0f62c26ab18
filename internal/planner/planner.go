// Package planner distributes a card set over the phase queues at session start.
package planner

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
)

const (
	// BackfillShare is the fraction of all cards sampled into a phase that
	// ended up empty.
	BackfillShare = 0.3
	minInclusion  = 0.3
)

var (
	ErrNoPhases = errors.New("planner: no phases configured")
	ErrNilCard  = errors.New("planner: nil card")
)

// InclusionProbability is the chance that a card is sampled into phase i.
// Phase 0 always holds every card.
func InclusionProbability(i int) float64 {
	if i <= 0 {
		return 1
	}
	return math.Max(minInclusion, 0.9-float64(i)*0.1)
}

// Planner builds phase queues. Coverage of later phases is sampled, so a
// card may be absent from some of them.
type Planner struct {
	phases int
	rng    *rand.Rand
	log    *logger.Logger
}

// New returns a planner for the given number of phases.
func New(phases int, rng *rand.Rand, log *logger.Logger) *Planner {
	if log == nil {
		log = logger.Default()
	}
	return &Planner{phases: phases, rng: rng, log: log.WithPrefix("planner")}
}

// Plan returns one shuffled queue per phase. Queues share the given card
// pointers. If distribution fails every phase gets the whole set.
func (p *Planner) Plan(all []*models.Card) [][]*models.Card {
	queues, err := p.distribute(all)
	if err != nil {
		p.log.Warn("distribution failed, using full card set in every phase: %v", err)
		return p.fallback(all)
	}
	for i, q := range queues {
		p.log.Debug("phase %d planned with %d cards", i, len(q))
	}
	return queues
}

func (p *Planner) distribute(all []*models.Card) (queues [][]*models.Card, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			queues, err = nil, fmt.Errorf("planner: panic: %v", rec)
		}
	}()

	if p.phases <= 0 {
		return nil, ErrNoPhases
	}

	queues = make([][]*models.Card, p.phases)
	for _, c := range all {
		if c == nil {
			return nil, ErrNilCard
		}
		queues[0] = append(queues[0], c)
		for i := 1; i < p.phases; i++ {
			if p.rng.Float64() < InclusionProbability(i) {
				queues[i] = append(queues[i], c)
			}
		}
	}

	if len(all) > 0 {
		sampleSize := int(math.Ceil(float64(len(all)) * BackfillShare))
		for i := 1; i < p.phases; i++ {
			if len(queues[i]) > 0 {
				continue
			}
			pool := p.shuffled(all)
			queues[i] = pool[:sampleSize]
			p.log.Debug("phase %d was empty, backfilled with %d cards", i, sampleSize)
		}
	}

	for _, q := range queues {
		p.Shuffle(q)
	}
	return queues, nil
}

func (p *Planner) fallback(all []*models.Card) [][]*models.Card {
	n := max(p.phases, 1)
	queues := make([][]*models.Card, n)
	for i := range queues {
		for _, c := range all {
			if c != nil {
				queues[i] = append(queues[i], c)
			}
		}
		p.Shuffle(queues[i])
	}
	return queues
}

func (p *Planner) shuffled(all []*models.Card) []*models.Card {
	out := make([]*models.Card, len(all))
	copy(out, all)
	p.Shuffle(out)
	return out
}

// Shuffle applies a uniform Fisher-Yates permutation to q in place.
func (p *Planner) Shuffle(q []*models.Card) {
	p.rng.Shuffle(len(q), func(i, j int) { q[i], q[j] = q[j], q[i] })
}
