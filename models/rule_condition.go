package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRuleCondition is returned when a rule's conditions do not fit its rule type
var ErrInvalidRuleCondition = errors.New("invalid pricing rule condition")

// StayContext carries the facts a rule condition is evaluated against
type StayContext struct {
	Nights           int
	DaysUntilCheckIn int
	Today            time.Time
}

// RuleCondition is the decoded, typed form of PricingRule.Conditions.
// The set of implementations is closed: one per RuleType.
type RuleCondition interface {
	Type() RuleType
	Matches(stay StayContext) bool
	isRuleCondition()
}

// LengthOfStayCondition matches stays of at least MinNights nights
type LengthOfStayCondition struct {
	MinNights int    `json:"min_nights"`
	Label     string `json:"type,omitempty"` // e.g. "weekly", "monthly"
}

func (LengthOfStayCondition) Type() RuleType { return RuleTypeLengthDiscount }
func (LengthOfStayCondition) isRuleCondition() {}

func (c LengthOfStayCondition) Matches(stay StayContext) bool {
	return c.MinNights <= stay.Nights
}

// EarlyBirdCondition matches bookings made at least DaysInAdvance days before check-in
type EarlyBirdCondition struct {
	DaysInAdvance int `json:"days_in_advance"`
}

func (EarlyBirdCondition) Type() RuleType { return RuleTypeEarlyBird }
func (EarlyBirdCondition) isRuleCondition() {}

func (c EarlyBirdCondition) Matches(stay StayContext) bool {
	return c.DaysInAdvance <= stay.DaysUntilCheckIn
}

// LastMinuteCondition matches bookings made at most DaysBeforeCheckIn days before check-in
type LastMinuteCondition struct {
	DaysBeforeCheckIn int `json:"days_before_checkin"`
}

func (LastMinuteCondition) Type() RuleType { return RuleTypeLastMinute }
func (LastMinuteCondition) isRuleCondition() {}

func (c LastMinuteCondition) Matches(stay StayContext) bool {
	return c.DaysBeforeCheckIn >= stay.DaysUntilCheckIn
}

// PromotionCondition matches while today falls inside [StartDate, EndDate]
type PromotionCondition struct {
	StartDate time.Time `json:"-"`
	EndDate   time.Time `json:"-"`
}

func (PromotionCondition) Type() RuleType { return RuleTypePromotion }
func (PromotionCondition) isRuleCondition() {}

func (c PromotionCondition) Matches(stay StayContext) bool {
	today := DateOf(stay.Today)
	return !today.Before(DateOf(c.StartDate)) && !today.After(DateOf(c.EndDate))
}

// Condition decodes the rule's conditions into the variant matching its rule type
func (pr *PricingRule) Condition() (RuleCondition, error) {
	switch pr.RuleType {
	case RuleTypeLengthDiscount:
		var raw struct {
			MinNights *int   `json:"min_nights"`
			Label     string `json:"type"`
		}
		if err := decodeConditions(pr.Conditions, &raw); err != nil {
			return nil, err
		}
		if raw.MinNights == nil || *raw.MinNights < 1 {
			return nil, fmt.Errorf("%w: length_discount requires min_nights >= 1", ErrInvalidRuleCondition)
		}
		return LengthOfStayCondition{MinNights: *raw.MinNights, Label: raw.Label}, nil

	case RuleTypeEarlyBird:
		var raw struct {
			DaysInAdvance *int `json:"days_in_advance"`
		}
		if err := decodeConditions(pr.Conditions, &raw); err != nil {
			return nil, err
		}
		if raw.DaysInAdvance == nil || *raw.DaysInAdvance < 0 {
			return nil, fmt.Errorf("%w: early_bird requires days_in_advance >= 0", ErrInvalidRuleCondition)
		}
		return EarlyBirdCondition{DaysInAdvance: *raw.DaysInAdvance}, nil

	case RuleTypeLastMinute:
		var raw struct {
			DaysBeforeCheckIn *int `json:"days_before_checkin"`
		}
		if err := decodeConditions(pr.Conditions, &raw); err != nil {
			return nil, err
		}
		if raw.DaysBeforeCheckIn == nil || *raw.DaysBeforeCheckIn < 0 {
			return nil, fmt.Errorf("%w: last_minute requires days_before_checkin >= 0", ErrInvalidRuleCondition)
		}
		return LastMinuteCondition{DaysBeforeCheckIn: *raw.DaysBeforeCheckIn}, nil

	case RuleTypePromotion:
		if pr.StartDate == nil || pr.EndDate == nil {
			return nil, fmt.Errorf("%w: promotion requires start_date and end_date", ErrInvalidRuleCondition)
		}
		if DateOf(*pr.EndDate).Before(DateOf(*pr.StartDate)) {
			return nil, fmt.Errorf("%w: promotion end_date precedes start_date", ErrInvalidRuleCondition)
		}
		return PromotionCondition{StartDate: *pr.StartDate, EndDate: *pr.EndDate}, nil
	}

	return nil, fmt.Errorf("%w: unknown rule type %q", ErrInvalidRuleCondition, pr.RuleType)
}

// EncodeRuleCondition serializes a condition into the stored conditions payload
func EncodeRuleCondition(c RuleCondition) (json.RawMessage, error) {
	if _, ok := c.(PromotionCondition); ok {
		return json.RawMessage(`{}`), nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule condition: %w", err)
	}
	return b, nil
}

func decodeConditions(payload json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRuleCondition, err)
	}
	return nil
}
