package catalog

import "context"

// Static serves plan details from memory.
type Static struct {
	plans map[string]PlanDetails
}

func NewStatic(plans ...PlanDetails) *Static {
	s := &Static{plans: make(map[string]PlanDetails, len(plans))}
	for _, p := range plans {
		s.plans[p.ID] = p
	}
	return s
}

func (s *Static) FetchPlanDetails(_ context.Context, planID string, _ Filters) (PlanDetails, error) {
	d, ok := s.plans[planID]
	if !ok {
		return PlanDetails{}, ErrPlanNotFound
	}
	return d, nil
}

func (s *Static) PlanDetails(ctx context.Context, planID string, f Filters) (PlanDetails, error) {
	return s.FetchPlanDetails(ctx, planID, f)
}
