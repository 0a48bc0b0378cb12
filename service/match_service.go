package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betbook/events"
	"betbook/models"
)

type matchService struct {
	uowFactory UnitOfWorkFactory
}

// NewMatchService creates a new match service
func NewMatchService(uowFactory UnitOfWorkFactory) MatchService {
	return &matchService{
		uowFactory: uowFactory,
	}
}

// CreateMatch opens a new two-outcome market (admin)
func (s *matchService) CreateMatch(ctx context.Context, actorID int64, title, teamA, teamB string, oddsA, oddsB decimal.Decimal) (*models.Match, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("match title must not be empty")
	}
	if teamA == "" || teamB == "" || teamA == teamB {
		return nil, fmt.Errorf("match needs two distinct teams")
	}
	one := decimal.NewFromInt(1)
	if oddsA.LessThanOrEqual(one) || oddsB.LessThanOrEqual(one) {
		return nil, fmt.Errorf("odds must be greater than 1")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return nil, err
	}

	match := &models.Match{
		Title:  title,
		TeamA:  teamA,
		TeamB:  teamB,
		OddsA:  oddsA,
		OddsB:  oddsB,
		Status: models.MatchOpen,
	}
	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return nil, storeErr("create match", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return match, nil
}

// PlaceMatchBet stakes on one of the match's two teams while it is OPEN.
// The stake path mirrors a plain bet with the match reference recorded.
func (s *matchService) PlaceMatchBet(ctx context.Context, accountID, matchID int64, team string, stake decimal.Decimal) (*models.BetResult, error) {
	if !stake.IsPositive() {
		return nil, fmt.Errorf("stake must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// The locked read serializes against MarkResolved, so the bet cannot
	// land on a match mid-resolution
	match, err := uow.MatchRepository().GetByIDLocked(ctx, matchID)
	if err != nil {
		return nil, storeErr("place match bet", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	if !match.IsOpen() {
		return nil, fmt.Errorf("match %d is not open for betting: %w", matchID, ErrInvalidState)
	}
	if !match.HasTeam(team) {
		return nil, fmt.Errorf("team %q does not play in match %d: %w", team, matchID, ErrInvalidState)
	}

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, storeErr("place match bet", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	if err := uow.AccountRepository().StakeCash(ctx, accountID, stake); err != nil {
		return nil, err
	}

	newBalance := account.CashBalance.Sub(stake)
	newTurnover := account.CurrentTurnover.Add(stake)

	bet := &models.BetRecord{
		AccountID: accountID,
		Game:      "match",
		Stake:     stake,
		WinAmount: decimal.Zero,
		Status:    models.BetPending,
		Detail:    fmt.Sprintf("%s @ %s", team, match.Title),
		MatchID:   &matchID,
		Team:      &team,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, storeErr("place match bet", err)
	}

	entry := &models.BalanceEntry{
		AccountID:     accountID,
		BalanceBefore: account.CashBalance,
		BalanceAfter:  newBalance,
		ChangeAmount:  stake.Neg(),
		EntryType:     models.EntryBetStake,
		RelatedID:     &bet.ID,
		RelatedKind:   relatedKind(models.RelatedBet),
		Metadata: map[string]any{
			"match_id": matchID,
			"team":     team,
			"odds":     match.OddsFor(team).String(),
		},
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record stake: %w", err)
	}

	if err := creditReferrer(ctx, uow, account, stake, bet.ID); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		AccountID: accountID,
		BetID:     bet.ID,
		Game:      "match",
		Stake:     stake,
		Status:    models.BetPending,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.BetResult{
		Bet:         bet,
		NewBalance:  newBalance,
		NewTurnover: newTurnover,
	}, nil
}

// ResolveMatch records the winner and settles every pending bet on the
// match in the same transaction (admin). Winning bets are paid
// stake * odds(winner); the rest are marked LOSS.
func (s *matchService) ResolveMatch(ctx context.Context, actorID, matchID int64, winner string) (*models.MatchResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return nil, err
	}

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, storeErr("resolve match", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	if !match.HasTeam(winner) {
		return nil, fmt.Errorf("team %q does not play in match %d: %w", winner, matchID, ErrInvalidState)
	}

	// CAS OPEN to RESOLVED; losing the race means someone else settled
	resolved, err := uow.MatchRepository().MarkResolved(ctx, matchID, winner)
	if err != nil {
		return nil, storeErr("resolve match", err)
	}
	if !resolved {
		return nil, fmt.Errorf("match %d already resolved: %w", matchID, ErrInvalidState)
	}

	odds := match.OddsFor(winner)
	pending, err := uow.BetRepository().ListPendingByMatch(ctx, matchID)
	if err != nil {
		return nil, storeErr("resolve match", err)
	}

	result := &models.MatchResult{
		Match:     match,
		TotalPaid: decimal.Zero,
	}

	for _, bet := range pending {
		won := bet.Team != nil && *bet.Team == winner

		status := models.BetLoss
		winAmount := decimal.Zero
		if won {
			status = models.BetWin
			winAmount = bet.Stake.Mul(odds)
		}

		settled, err := uow.BetRepository().Settle(ctx, bet.ID, status, winAmount)
		if err != nil {
			return nil, storeErr("resolve match", err)
		}
		if !settled {
			continue
		}
		result.BetsSettled++

		if won {
			account, err := uow.AccountRepository().GetByID(ctx, bet.AccountID)
			if err != nil {
				return nil, storeErr("resolve match", err)
			}
			if account == nil {
				continue
			}

			if err := uow.AccountRepository().CreditCash(ctx, bet.AccountID, winAmount); err != nil {
				return nil, storeErr("resolve match", err)
			}

			entry := &models.BalanceEntry{
				AccountID:     bet.AccountID,
				BalanceBefore: account.CashBalance,
				BalanceAfter:  account.CashBalance.Add(winAmount),
				ChangeAmount:  winAmount,
				EntryType:     models.EntryMatchPayout,
				RelatedID:     &bet.ID,
				RelatedKind:   relatedKind(models.RelatedBet),
				Metadata: map[string]any{
					"match_id": matchID,
					"winner":   winner,
					"odds":     odds.String(),
				},
			}
			if err := RecordBalanceChange(ctx, uow, entry); err != nil {
				return nil, fmt.Errorf("failed to record payout: %w", err)
			}

			result.BetsWon++
			result.TotalPaid = result.TotalPaid.Add(winAmount)
		}

		uow.EventBus().Publish(events.BetSettledEvent{
			BetID:     bet.ID,
			AccountID: bet.AccountID,
			Status:    status,
			WinAmount: winAmount,
		})
	}

	uow.EventBus().Publish(events.MatchResolvedEvent{
		MatchID:     matchID,
		Winner:      winner,
		BetsSettled: result.BetsSettled,
		TotalPaid:   result.TotalPaid,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	winnerCopy := winner
	match.Status = models.MatchResolved
	match.Winner = &winnerCopy

	log.WithFields(log.Fields{
		"matchID":     matchID,
		"winner":      winner,
		"betsSettled": result.BetsSettled,
		"totalPaid":   result.TotalPaid,
	}).Info("Match resolved")

	return result, nil
}

// DeleteMatch removes a market that is still OPEN (admin)
func (s *matchService) DeleteMatch(ctx context.Context, actorID, matchID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return err
	}

	deleted, err := uow.MatchRepository().DeleteOpen(ctx, matchID)
	if err != nil {
		return storeErr("delete match", err)
	}
	if !deleted {
		return fmt.Errorf("match %d is missing or already resolved: %w", matchID, ErrInvalidState)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListOpenMatches returns markets currently accepting bets
func (s *matchService) ListOpenMatches(ctx context.Context) ([]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListOpen(ctx)
	if err != nil {
		return nil, storeErr("list open matches", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return matches, nil
}
