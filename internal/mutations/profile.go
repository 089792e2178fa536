package mutations

import (
	"context"
	"fmt"

	"quote-engine/internal/model"
)

// setProfileProps only touches the fields present in the edit.
type setProfileProps struct {
	ClientType        *string `json:"client_type"`
	LegalPersonTypeID *int    `json:"legal_person_type_id"`
	LeadID            *int    `json:"lead_id"`
	ContactID         *int    `json:"contact_id"`
	Client            *string `json:"client"`
	Coparticipation   *int    `json:"coparticipation"`
	WithoutEntity     *bool   `json:"without_entity"`
	EntityType        *int    `json:"entity_type"`
	Professions       *[]int  `json:"professions"`
	Associations      *[]int  `json:"associations"`
}

type SetProfileHandler struct{}

func (h *SetProfileHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props setProfileProps
	if msgs := requireDraft(state, edit, &props); msgs != nil {
		return msgs
	}

	if props.ClientType != nil && !model.ClientType(*props.ClientType).Valid() {
		return []model.CalculationMessage{model.Critical("INVALID_CLIENT_TYPE",
			fmt.Sprintf("Client type must be physical or legal, got %q", *props.ClientType))}
	}
	if props.Coparticipation != nil && !model.Coparticipation(*props.Coparticipation).Valid() {
		return []model.CalculationMessage{model.Critical("INVALID_COPARTICIPATION_FILTER",
			fmt.Sprintf("Coparticipation filter must be between 0 and 3, got %d", *props.Coparticipation))}
	}
	return nil
}

func (h *SetProfileHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props setProfileProps
	decodeProps(edit, &props)

	next := *state
	p := state.Profile
	if props.ClientType != nil {
		p.ClientType = model.ClientType(*props.ClientType)
	}
	if props.LegalPersonTypeID != nil {
		p.LegalPersonTypeID = props.LegalPersonTypeID
	}
	if props.LeadID != nil {
		p.LeadID = props.LeadID
	}
	if props.ContactID != nil {
		p.ContactID = props.ContactID
	}
	if props.Client != nil {
		p.Client = *props.Client
	}
	if props.Coparticipation != nil {
		p.Coparticipation = model.Coparticipation(*props.Coparticipation)
	}
	if props.WithoutEntity != nil {
		p.WithoutEntity = props.WithoutEntity
	}
	if props.EntityType != nil {
		p.EntityType = props.EntityType
	}
	if props.Professions != nil {
		p.Professions = append([]int{}, (*props.Professions)...)
	}
	if props.Associations != nil {
		p.Associations = append([]int{}, (*props.Associations)...)
	}
	next.Profile = p
	return &next, nil
}

type setLocationProps struct {
	StateID int `json:"state_id"`
	CityID  int `json:"city_id"`
}

type SetLocationHandler struct{}

func (h *SetLocationHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props setLocationProps
	if msgs := requireDraft(state, edit, &props); msgs != nil {
		return msgs
	}
	if props.StateID <= 0 || props.CityID <= 0 {
		return []model.CalculationMessage{model.Critical("INVALID_LOCATION", "Both state and city must be chosen")}
	}
	return nil
}

func (h *SetLocationHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props setLocationProps
	decodeProps(edit, &props)

	next := *state
	next.Location = model.Location{StateID: props.StateID, CityID: props.CityID}
	return &next, nil
}

type setDiscountDisplayProps struct {
	ApplyDiscount bool `json:"apply_discount"`
}

type SetDiscountDisplayHandler struct{}

func (h *SetDiscountDisplayHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props setDiscountDisplayProps
	return requireDraft(state, edit, &props)
}

func (h *SetDiscountDisplayHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props setDiscountDisplayProps
	decodeProps(edit, &props)

	next := *state
	next.ApplyDiscount = props.ApplyDiscount
	return &next, nil
}
