package raffle

import (
	crand "crypto/rand"
	"errors"
	"math/big"
	"sort"

	"github.com/nantokaworks/safari-raffle/internal/types"
)

var (
	ErrNoParticipants         = errors.New("no participants in the raffle")
	ErrNoPrizesAvailable      = errors.New("no prizes available")
	ErrNoEligibleParticipants = errors.New("no eligible participants for this draw")
	errInvalidWeightTotal     = errors.New("invalid total weight")
)

var drawRandomInt = secureRandomInt

// weightedEntry は累積重み抽選に使用するエントリ。
type weightedEntry struct {
	CumulativeSum int
	Participant   types.Participant
}

// EligibleParticipants filters the participants allowed to win a new draw.
// When multiple wins are allowed, anyone who has won fewer prizes than they
// hold tickets stays in; otherwise only participants who never won.
func EligibleParticipants(participants []types.Participant, allowMultipleWins bool) []types.Participant {
	eligible := []types.Participant{}
	for _, p := range participants {
		if allowMultipleWins {
			if p.AwardedCount() < p.Tickets {
				eligible = append(eligible, p)
			}
		} else {
			if p.AwardedCount() == 0 {
				eligible = append(eligible, p)
			}
		}
	}
	return eligible
}

// SelectWinner picks exactly one participant from the eligible list.
//
// With multiple wins disallowed every participant weighs their unused
// tickets, so more tickets mean proportionally better odds. With multiple
// wins allowed the draw is uniform: ticket counts already cap lifetime wins
// through eligibility, so no extra weighting is applied.
func SelectWinner(eligible []types.Participant, allowMultipleWins bool) (*types.Participant, error) {
	if len(eligible) == 0 {
		return nil, ErrNoEligibleParticipants
	}

	entries := make([]weightedEntry, 0, len(eligible))
	totalWeight := 0
	for _, p := range eligible {
		weight := 1
		if !allowMultipleWins {
			weight = p.RemainingTickets()
		}
		if weight <= 0 {
			continue
		}
		totalWeight += weight
		entries = append(entries, weightedEntry{
			CumulativeSum: totalWeight,
			Participant:   p,
		})
	}
	if len(entries) == 0 || totalWeight <= 0 {
		return nil, ErrNoEligibleParticipants
	}

	picked, err := drawRandomInt(totalWeight)
	if err != nil {
		return nil, err
	}

	target := picked + 1 // 1-based index
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].CumulativeSum >= target
	})
	if idx >= len(entries) {
		return nil, errInvalidWeightTotal
	}

	winner := entries[idx].Participant
	return &winner, nil
}

func secureRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, errInvalidWeightTotal
	}

	n, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
