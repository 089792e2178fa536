package mutations

var registry = map[string]EditHandler{
	"start_quote":            &StartQuoteHandler{},
	"adjust_lives":           &AdjustLivesHandler{},
	"apply_birthdates":       &ApplyBirthdatesHandler{},
	"set_profile":            &SetProfileHandler{},
	"set_location":           &SetLocationHandler{},
	"set_discount_display":   &SetDiscountDisplayHandler{},
	"set_budget_min":         &SetBudgetHandleHandler{},
	"set_budget_max":         &SetBudgetHandleHandler{Max: true},
	"set_budget_position":    &SetBudgetPositionHandler{},
	"set_budget_text":        &SetBudgetTextHandler{},
	"open_plan":              &OpenPlanHandler{},
	"choose_table":           &ChooseTableHandler{},
	"choose_coparticipation": &ChooseCoparticipationHandler{},
	"toggle_product":         &ToggleProductHandler{},
	"confirm_selection":      &ConfirmSelectionHandler{},
	"funnel_back":            &FunnelBackHandler{},
	"close_funnel":           &CloseFunnelHandler{},
	"remove_product":         &RemoveProductHandler{},
}

func Get(name string) (EditHandler, bool) {
	h, ok := registry[name]
	return h, ok
}
