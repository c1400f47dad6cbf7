package app

import (
	"context"
	"fmt"

	"fintrack/internal/domain/obligation"
	idb "fintrack/internal/infra/database" // For ErrObligationNotFound and friends

	"github.com/sirupsen/logrus"
)

// SettleResult is the outcome of settling one obligation. Successor is nil
// when the obligation does not recur or its recurrence window is exhausted.
// Warning carries non-fatal successor problems: the settlement itself stands
// whenever the store write succeeded.
type SettleResult struct {
	Obligation *obligation.Obligation
	Successor  *obligation.Obligation
	Warning    string
}

// RecurrenceService settles obligations and chains the next instance of
// recurring ones. It holds no state beyond its dependencies and is safe for
// reentrant invocation; all cross-call state lives in the store.
type RecurrenceService struct {
	repo         obligation.Repository
	logger       *logrus.Logger
	endInclusive bool // whether next == recurrence end still generates a successor
}

func NewRecurrenceService(repo obligation.Repository, logger *logrus.Logger, endInclusive bool) *RecurrenceService {
	return &RecurrenceService{repo: repo, logger: logger, endInclusive: endInclusive}
}

// Settle marks the obligation settled and, for recurring rules, generates
// the successor obligation. Successor creation is best effort: a duplicate
// (from a retried call) or an insert failure is reported through Warning,
// never by failing the settlement.
func (s *RecurrenceService) Settle(ctx context.Context, obligationID int64) (SettleResult, error) {
	settled, err := s.repo.Settle(ctx, obligationID)
	if err != nil {
		if err == idb.ErrObligationAlreadySettled {
			// Retried call. The settlement is already durable; fall through
			// so the successor guard below still answers idempotently.
			s.logger.Infof("recurrence: obligation %d was already settled", obligationID)
		} else {
			return SettleResult{}, fmt.Errorf("failed to settle obligation %d: %w", obligationID, err)
		}
	}
	result := SettleResult{Obligation: settled}
	s.logger.Infof("recurrence: obligation %d (%q) settled", settled.ID, settled.Title)

	next, ok := obligation.NextOccurrence(settled.DueDate, settled.Frequency)
	if !ok {
		return result, nil
	}
	if !obligation.WithinEnd(next, settled.RecurrenceEnd, s.endInclusive) {
		s.logger.Infof("recurrence: obligation %d next date %s exceeds recurrence end, chain complete",
			settled.ID, next.Format("2006-01-02"))
		return result, nil
	}

	// Duplicate-successor guard: a retried Settle must not extend the chain
	// twice for the same predecessor.
	existing, err := s.repo.FindByPredecessor(ctx, settled.ID)
	if err == nil && existing != nil {
		s.logger.Warnf("recurrence: successor already exists for obligation %d (successor ID %d)", settled.ID, existing.ID)
		result.Successor = existing
		result.Warning = "successor already exists"
		return result, nil
	}
	if err != nil && err != idb.ErrObligationNotFound {
		// The settlement stands; report the broken chain instead of failing.
		s.logger.Warnf("recurrence: could not check for existing successor of obligation %d: %v", settled.ID, err)
		result.Warning = fmt.Sprintf("successor check failed: %v", err)
		return result, nil
	}

	successor := settled.Successor(next)
	if err := s.repo.Insert(ctx, successor); err != nil {
		s.logger.Warnf("recurrence: failed to create successor for obligation %d: %v", settled.ID, err)
		result.Warning = fmt.Sprintf("successor creation failed: %v", err)
		return result, nil
	}

	s.logger.Infof("recurrence: created successor %d for obligation %d, due %s",
		successor.ID, settled.ID, next.Format("2006-01-02"))
	result.Successor = successor
	return result, nil
}
