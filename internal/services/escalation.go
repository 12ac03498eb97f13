package services

import (
	"context"
	"sort"
	"time"

	"notification-orchestrator/internal/models"
)

// evaluateCondition checks if the alert priority satisfies the escalation policy.
func evaluateCondition(cond string, alertPriority, policyPriority models.Priority) bool {
	alert, policy := alertPriority.Rank(), policyPriority.Rank()
	if alert == 0 {
		return false
	}
	switch cond {
	case "EQ":
		return alert == policy
	case "NEQ":
		return alert != policy
	case "GT":
		return alert > policy
	case "GTE":
		return alert >= policy
	case "LT":
		return alert < policy
	case "LTE":
		return alert <= policy
	default:
		return false
	}
}

// escalationMemory is how long an escalated id is remembered. A notification
// still in the top tier after that is escalated again as a reminder.
const escalationMemory = 24 * time.Hour

// escalate queues every top-tier direct notification the policy selects, once per id.
func (s *Service) escalate(feeds models.Feeds) {
	if len(s.providerFuncs) == 0 {
		return
	}
	policy := models.Priority(s.config.Escalation.Priority)
	now := s.clock()
	s.forgetEscalations(now)
	for _, n := range feeds.Direct {
		if n.Layout != models.LayoutTop || n.IsRead {
			continue
		}
		if !evaluateCondition(s.config.Escalation.Condition, n.Priority, policy) {
			continue
		}
		if !s.markEscalated(n.ID, now) {
			continue
		}
		select {
		case s.escalations <- n:
			s.logger.Infof("Queued escalation: id=%s score=%.1f", n.ID, n.Score)
		default:
			s.unmarkEscalated(n.ID)
			s.logger.Errorf("Escalation queue full, dropping: id=%s", n.ID)
		}
	}
}

func (s *Service) markEscalated(id string, now time.Time) bool {
	s.escalatedMu.Lock()
	defer s.escalatedMu.Unlock()
	if _, ok := s.escalated[id]; ok {
		return false
	}
	s.escalated[id] = now
	return true
}

// forgetEscalations drops ids escalated more than escalationMemory before now.
func (s *Service) forgetEscalations(now time.Time) {
	s.escalatedMu.Lock()
	defer s.escalatedMu.Unlock()
	for id, at := range s.escalated {
		if now.Sub(at) >= escalationMemory {
			delete(s.escalated, id)
		}
	}
}

func (s *Service) unmarkEscalated(id string) {
	s.escalatedMu.Lock()
	defer s.escalatedMu.Unlock()
	delete(s.escalated, id)
}

// escalationWorker delivers queued escalations until the service stops.
func (s *Service) escalationWorker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Escalation worker stopped")
			return
		case n := <-s.escalations:
			s.dispatch(s.ctx, n)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, n models.Notification) {
	names := make([]string, 0, len(s.providerFuncs))
	for name := range s.providerFuncs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		result := "success"
		if err := s.providerFuncs[name](ctx, n); err != nil {
			result = "failed"
			s.logger.Errorf("Escalation error via %s for %s: %v", name, n.ID, err)
		}
		s.metrics.EscalationsTotal.WithLabelValues(name, result).Inc()
		s.logger.Infof("Escalation %s dispatched %s via %s", n.ID, result, name)
	}
}
