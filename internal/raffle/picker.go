package raffle

import (
	"fmt"
	"sync"

	"github.com/nantokaworks/safari-raffle/internal/localdb"
	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"github.com/nantokaworks/safari-raffle/internal/types"
	"go.uber.org/zap"
)

// pickMu serializes draws so two concurrent requests cannot interleave
// their eligibility reads with each other's award commit.
var pickMu sync.Mutex

// PickWinner runs one complete draw: resolve the prize, filter eligible
// participants, select a winner and commit the award. A single settings
// snapshot taken at the start is used for the whole draw.
//
// The award commit is never retried; if it fails (for example a capacity
// race lost against a manual award), the error surfaces so the caller is
// not told a different winner than the one recorded.
func PickWinner(prizeID int64, autoSelect bool) (*types.DrawResult, error) {
	pickMu.Lock()
	defer pickMu.Unlock()

	participants, err := localdb.GetParticipants()
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	settings, err := localdb.GetSettings()
	if err != nil {
		return nil, err
	}

	if autoSelect {
		prizeID, err = pickRandomPrize()
		if err != nil {
			return nil, err
		}
	} else if prizeID <= 0 {
		return nil, fmt.Errorf("%w: prize id is required when auto selection is disabled", localdb.ErrInvalidInput)
	}

	eligible := EligibleParticipants(participants, settings.AllowMultipleWins)
	if len(eligible) == 0 {
		return nil, ErrNoEligibleParticipants
	}

	winner, err := SelectWinner(eligible, settings.AllowMultipleWins)
	if err != nil {
		return nil, err
	}

	if err := localdb.AwardPrize(winner.ID, prizeID); err != nil {
		return nil, err
	}

	prize, err := localdb.GetPrize(prizeID)
	if err != nil {
		return nil, err
	}

	logger.Info("Winner drawn",
		zap.Int64("participant_id", winner.ID),
		zap.String("winner", winner.Name),
		zap.Int64("prize_id", prize.ID),
		zap.String("prize", prize.Name))

	return &types.DrawResult{
		WinnerID:   winner.ID,
		Winner:     winner.Name,
		Tickets:    winner.Tickets,
		Animal:     winner.Animal,
		Photo:      winner.PhotoPath,
		Prize:      prize.Name,
		PrizePhoto: prize.PhotoPath,
	}, nil
}

// pickRandomPrize chooses uniformly among prizes with remaining units.
func pickRandomPrize() (int64, error) {
	prizes, err := localdb.GetPrizes()
	if err != nil {
		return 0, err
	}

	available := []types.Prize{}
	for _, p := range prizes {
		if p.Remaining > 0 {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		return 0, ErrNoPrizesAvailable
	}

	idx, err := drawRandomInt(len(available))
	if err != nil {
		return 0, err
	}
	return available[idx].ID, nil
}
