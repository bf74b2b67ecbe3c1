package businessflow

import (
	"context"
	"errors"
	"strings"

	"github.com/amirphl/staybook/app/dto"
	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/repository"
	"github.com/amirphl/staybook/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// PricingCacheInvalidator drops cached pricing data of a property; *pricing.CachedSource implements it
type PricingCacheInvalidator interface {
	Invalidate(ctx context.Context, propertyUUID uuid.UUID, propertyID uint) error
}

// PricingAdminFlow manages the pricing profile, seasons, fees and rules of properties
type PricingAdminFlow interface {
	UpsertPropertyPricing(ctx context.Context, req *dto.AdminUpsertPropertyPricingRequest) (*dto.AdminUpsertPropertyPricingResponse, error)
	CreateSeasonalPrice(ctx context.Context, req *dto.AdminCreateSeasonalPriceRequest) (*dto.AdminCreateSeasonalPriceResponse, error)
	ListSeasonalPrices(ctx context.Context, propertyID string) (*dto.AdminListSeasonalPricesResponse, error)
	UpsertPropertyFees(ctx context.Context, req *dto.AdminUpsertPropertyFeesRequest) (*dto.AdminUpsertPropertyFeesResponse, error)
	CreatePricingRule(ctx context.Context, req *dto.AdminCreatePricingRuleRequest) (*dto.AdminCreatePricingRuleResponse, error)
	ListPricingRules(ctx context.Context, propertyID string) (*dto.AdminListPricingRulesResponse, error)
	SetPricingRuleActive(ctx context.Context, req *dto.AdminSetPricingRuleActiveRequest) (*dto.AdminSetPricingRuleActiveResponse, error)
}

type PricingAdminFlowImpl struct {
	propertyRepo repository.PropertyRepository
	seasonRepo   repository.SeasonalPriceRepository
	feeRepo      repository.PropertyFeeRepository
	ruleRepo     repository.PricingRuleRepository
	cache        PricingCacheInvalidator
	db           *gorm.DB
	logger       *zap.Logger
}

// NewPricingAdminFlow wires the admin flow; cache may be nil when pricing data is not cached
func NewPricingAdminFlow(
	propertyRepo repository.PropertyRepository,
	seasonRepo repository.SeasonalPriceRepository,
	feeRepo repository.PropertyFeeRepository,
	ruleRepo repository.PricingRuleRepository,
	cache PricingCacheInvalidator,
	db *gorm.DB,
	logger *zap.Logger,
) PricingAdminFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingAdminFlowImpl{
		propertyRepo: propertyRepo,
		seasonRepo:   seasonRepo,
		feeRepo:      feeRepo,
		ruleRepo:     ruleRepo,
		cache:        cache,
		db:           db,
		logger:       logger,
	}
}

// UpsertPropertyPricing creates a property or replaces the pricing profile of an existing one
func (f *PricingAdminFlowImpl) UpsertPropertyPricing(ctx context.Context, req *dto.AdminUpsertPropertyPricingRequest) (*dto.AdminUpsertPropertyPricingResponse, error) {
	price, err := parseAmount("price", req.Price)
	if err != nil {
		return nil, err
	}

	commission := decimal.NullDecimal{}
	if req.CommissionRate != nil && strings.TrimSpace(*req.CommissionRate) != "" {
		rate, err := decimal.NewFromString(strings.TrimSpace(*req.CommissionRate))
		if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(one) {
			return nil, NewBusinessError("INVALID_COMMISSION_RATE", "Commission rate must be at least 0 and below 1", ErrInvalidCommissionRate)
		}
		commission = decimal.NewNullDecimal(rate)
	}

	var hostAccount *string
	if req.HostAccountID != nil && strings.TrimSpace(*req.HostAccountID) != "" {
		hostAccount = utils.ToPtr(strings.TrimSpace(*req.HostAccountID))
	}

	var (
		property *models.Property
		created  bool
	)
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if req.PropertyID != "" {
			id, err := uuid.Parse(req.PropertyID)
			if err != nil {
				return NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", ErrPropertyNotFound)
			}
			property, err = f.propertyRepo.ByUUID(txCtx, id)
			if err != nil {
				return NewBusinessError("PROPERTY_LOOKUP_FAILED", "Failed to load property", err)
			}
			if property == nil {
				property = &models.Property{UUID: id}
			}
		} else {
			property = &models.Property{}
		}

		property.Title = strings.TrimSpace(req.Title)
		property.Price = price
		property.CommissionRate = commission
		property.HostAccountID = hostAccount
		property.UpdatedAt = utils.UTCNow()

		if property.ID == 0 {
			created = true
			property.CreatedAt = property.UpdatedAt
			if err := f.propertyRepo.Save(txCtx, property); err != nil {
				return NewBusinessError("PROPERTY_SAVE_FAILED", "Failed to save property", err)
			}
			return nil
		}
		if err := f.propertyRepo.Update(txCtx, property); err != nil {
			return NewBusinessError("PROPERTY_SAVE_FAILED", "Failed to save property", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.invalidate(ctx, property)
	f.audit(ctx, "upsert_property_pricing", property, zap.Bool("created", created))

	message := "Property pricing updated successfully"
	if created {
		message = "Property created successfully"
	}
	return &dto.AdminUpsertPropertyPricingResponse{
		Message:  message,
		Created:  created,
		Property: toPropertyPricingItem(property),
	}, nil
}

// CreateSeasonalPrice adds an override after making sure no existing override shares a date with it
func (f *PricingAdminFlowImpl) CreateSeasonalPrice(ctx context.Context, req *dto.AdminCreateSeasonalPriceRequest) (*dto.AdminCreateSeasonalPriceResponse, error) {
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, NewBusinessError("INVALID_START_DATE", "Start date is invalid", errors.Join(ErrInvalidDate, err))
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return nil, NewBusinessError("INVALID_END_DATE", "End date is invalid", errors.Join(ErrInvalidDate, err))
	}
	if end.Before(start) {
		return nil, NewBusinessError("INVALID_SEASONAL_RANGE", "End date must not precede start date", ErrInvalidSeasonalRange)
	}
	price, err := parseAmount("price_per_night", req.PricePerNight)
	if err != nil {
		return nil, err
	}
	multiplier := decimal.NullDecimal{}
	if req.WeekendMultiplier != nil && strings.TrimSpace(*req.WeekendMultiplier) != "" {
		m, err := decimal.NewFromString(strings.TrimSpace(*req.WeekendMultiplier))
		if err != nil || !m.IsPositive() {
			return nil, NewBusinessError("INVALID_WEEKEND_MULTIPLIER", "Weekend multiplier must be greater than zero", ErrInvalidWeekendFactor)
		}
		multiplier = decimal.NewNullDecimal(m)
	}

	var (
		property *models.Property
		season   *models.SeasonalPrice
	)
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var err error
		property, err = f.loadProperty(txCtx, req.PropertyID)
		if err != nil {
			return err
		}

		overlapping, err := f.seasonRepo.Overlapping(txCtx, property.ID, start, end)
		if err != nil {
			return NewBusinessError("SEASONAL_PRICE_LOOKUP_FAILED", "Failed to check existing seasonal prices", err)
		}
		if len(overlapping) > 0 {
			return NewBusinessErrorf("SEASONAL_PRICE_OVERLAP", "Seasonal price overlaps %s to %s", ErrSeasonalPriceOverlap,
				utils.FormatDate(overlapping[0].StartDate), utils.FormatDate(overlapping[0].EndDate))
		}

		now := utils.UTCNow()
		season = &models.SeasonalPrice{
			PropertyID:        property.ID,
			StartDate:         start,
			EndDate:           end,
			PricePerNight:     price,
			WeekendMultiplier: multiplier,
			Name:              req.Name,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := f.seasonRepo.Save(txCtx, season); err != nil {
			return NewBusinessError("SEASONAL_PRICE_SAVE_FAILED", "Failed to save seasonal price", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.invalidate(ctx, property)
	f.audit(ctx, "create_seasonal_price", property, zap.String("seasonal_price_id", season.UUID.String()))

	return &dto.AdminCreateSeasonalPriceResponse{
		Message:       "Seasonal price created successfully",
		SeasonalPrice: toSeasonalPriceItem(season),
	}, nil
}

// ListSeasonalPrices returns the overrides of a property ordered by start date
func (f *PricingAdminFlowImpl) ListSeasonalPrices(ctx context.Context, propertyID string) (*dto.AdminListSeasonalPricesResponse, error) {
	property, err := f.loadProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	rows, err := f.seasonRepo.ListByProperty(ctx, property.ID)
	if err != nil {
		return nil, NewBusinessError("SEASONAL_PRICE_LIST_FAILED", "Failed to list seasonal prices", err)
	}

	items := make([]dto.AdminSeasonalPriceItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSeasonalPriceItem(row))
	}

	return &dto.AdminListSeasonalPricesResponse{
		Message: "Seasonal prices retrieved successfully",
		Items:   items,
	}, nil
}

// UpsertPropertyFees replaces the fee schedule of a property
func (f *PricingAdminFlowImpl) UpsertPropertyFees(ctx context.Context, req *dto.AdminUpsertPropertyFeesRequest) (*dto.AdminUpsertPropertyFeesResponse, error) {
	amounts := map[string]string{
		"cleaning_fee":     req.CleaningFee,
		"extra_guest_fee":  req.ExtraGuestFee,
		"pet_fee":          req.PetFee,
		"security_deposit": req.SecurityDeposit,
		"tax_rate":         req.TaxRate,
	}
	parsed := make(map[string]decimal.Decimal, len(amounts))
	for field, value := range amounts {
		d, err := parseAmount(field, value)
		if err != nil {
			return nil, err
		}
		parsed[field] = d
	}
	if parsed["tax_rate"].GreaterThan(hundred) {
		return nil, NewBusinessError("INVALID_AMOUNT", "tax_rate must not exceed 100", ErrInvalidAmount)
	}
	if req.ExtraGuestThreshold != nil && *req.ExtraGuestThreshold < 1 {
		return nil, NewBusinessError("INVALID_AMOUNT", "extra_guest_threshold must be at least 1", ErrInvalidAmount)
	}

	property, err := f.loadProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	fee := &models.PropertyFee{
		PropertyID:          property.ID,
		CleaningFee:         parsed["cleaning_fee"],
		ExtraGuestFee:       parsed["extra_guest_fee"],
		ExtraGuestThreshold: req.ExtraGuestThreshold,
		PetFee:              parsed["pet_fee"],
		SecurityDeposit:     parsed["security_deposit"],
		TaxRate:             parsed["tax_rate"],
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := f.feeRepo.Upsert(ctx, fee); err != nil {
		return nil, NewBusinessError("PROPERTY_FEES_SAVE_FAILED", "Failed to save fee schedule", err)
	}

	f.invalidate(ctx, property)
	f.audit(ctx, "upsert_property_fees", property)

	return &dto.AdminUpsertPropertyFeesResponse{
		Message: "Fee schedule saved successfully",
		Fees: dto.AdminPropertyFeesItem{
			PropertyID:          property.UUID.String(),
			CleaningFee:         fee.CleaningFee.String(),
			ExtraGuestFee:       fee.ExtraGuestFee.String(),
			ExtraGuestThreshold: fee.ExtraGuestThreshold,
			PetFee:              fee.PetFee.String(),
			SecurityDeposit:     fee.SecurityDeposit.String(),
			TaxRate:             fee.TaxRate.String(),
			UpdatedAt:           formatTime(fee.UpdatedAt),
		},
	}, nil
}

// CreatePricingRule validates the rule's conditions against its type and stores them normalized
func (f *PricingAdminFlowImpl) CreatePricingRule(ctx context.Context, req *dto.AdminCreatePricingRuleRequest) (*dto.AdminCreatePricingRuleResponse, error) {
	ruleType := models.RuleType(req.RuleType)
	if !ruleType.Valid() {
		return nil, NewBusinessErrorf("INVALID_PRICING_RULE", "Unknown rule type %q", ErrInvalidPricingRule, req.RuleType)
	}

	percent, err := decimal.NewFromString(strings.TrimSpace(req.DiscountPercent))
	if err != nil || !percent.IsPositive() || percent.GreaterThan(hundred) {
		return nil, NewBusinessError("INVALID_DISCOUNT_PERCENT", "Discount percent must be greater than 0 and at most 100", ErrInvalidDiscountPercent)
	}

	rule := &models.PricingRule{
		Name:            strings.TrimSpace(req.Name),
		RuleType:        ruleType,
		IsActive:        req.IsActive == nil || *req.IsActive,
		DiscountPercent: percent,
		Conditions:      req.Conditions,
	}
	if req.StartDate != nil {
		d, err := utils.ParseDate(*req.StartDate)
		if err != nil {
			return nil, NewBusinessError("INVALID_START_DATE", "Start date is invalid", errors.Join(ErrInvalidDate, err))
		}
		rule.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := utils.ParseDate(*req.EndDate)
		if err != nil {
			return nil, NewBusinessError("INVALID_END_DATE", "End date is invalid", errors.Join(ErrInvalidDate, err))
		}
		rule.EndDate = &d
	}

	cond, err := rule.Condition()
	if err != nil {
		return nil, NewBusinessError("INVALID_PRICING_RULE", err.Error(), errors.Join(ErrInvalidPricingRule, err))
	}
	rule.Conditions, err = models.EncodeRuleCondition(cond)
	if err != nil {
		return nil, NewBusinessError("INVALID_PRICING_RULE", "Failed to encode rule conditions", errors.Join(ErrInvalidPricingRule, err))
	}

	property, err := f.loadProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	rule.PropertyID = property.ID
	rule.CreatedAt = now
	rule.UpdatedAt = now
	if err := f.ruleRepo.Save(ctx, rule); err != nil {
		return nil, NewBusinessError("PRICING_RULE_SAVE_FAILED", "Failed to save pricing rule", err)
	}

	f.invalidate(ctx, property)
	f.audit(ctx, "create_pricing_rule", property,
		zap.String("rule_id", rule.UUID.String()),
		zap.String("rule_type", string(rule.RuleType)),
	)

	return &dto.AdminCreatePricingRuleResponse{
		Message: "Pricing rule created successfully",
		Rule:    toPricingRuleItem(rule),
	}, nil
}

// ListPricingRules returns every rule of a property in evaluation order
func (f *PricingAdminFlowImpl) ListPricingRules(ctx context.Context, propertyID string) (*dto.AdminListPricingRulesResponse, error) {
	property, err := f.loadProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	rows, err := f.ruleRepo.ListByProperty(ctx, property.ID)
	if err != nil {
		return nil, NewBusinessError("PRICING_RULE_LIST_FAILED", "Failed to list pricing rules", err)
	}

	items := make([]dto.AdminPricingRuleItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toPricingRuleItem(row))
	}

	return &dto.AdminListPricingRulesResponse{
		Message: "Pricing rules retrieved successfully",
		Items:   items,
	}, nil
}

// SetPricingRuleActive switches a rule on or off
func (f *PricingAdminFlowImpl) SetPricingRuleActive(ctx context.Context, req *dto.AdminSetPricingRuleActiveRequest) (*dto.AdminSetPricingRuleActiveResponse, error) {
	if req.IsActive == nil {
		return nil, NewBusinessError("INVALID_PRICING_RULE", "is_active is required", ErrInvalidPricingRule)
	}
	id, err := uuid.Parse(req.RuleID)
	if err != nil {
		return nil, NewBusinessError("PRICING_RULE_NOT_FOUND", "Pricing rule not found", ErrPricingRuleNotFound)
	}

	rule, err := f.ruleRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("PRICING_RULE_LOOKUP_FAILED", "Failed to load pricing rule", err)
	}
	if rule == nil {
		return nil, NewBusinessError("PRICING_RULE_NOT_FOUND", "Pricing rule not found", ErrPricingRuleNotFound)
	}

	if err := f.ruleRepo.SetActive(ctx, rule.ID, *req.IsActive); err != nil {
		return nil, NewBusinessError("PRICING_RULE_SAVE_FAILED", "Failed to update pricing rule", err)
	}
	rule.IsActive = *req.IsActive

	property, err := f.propertyRepo.ByID(ctx, rule.PropertyID)
	if err != nil {
		f.logger.Warn("Failed to load property for cache invalidation", zap.Uint("property_id", rule.PropertyID), zap.Error(err))
	}
	f.invalidate(ctx, property)
	f.audit(ctx, "set_pricing_rule_active", property,
		zap.String("rule_id", rule.UUID.String()),
		zap.Bool("is_active", rule.IsActive),
	)

	message := "Pricing rule deactivated"
	if rule.IsActive {
		message = "Pricing rule activated"
	}
	return &dto.AdminSetPricingRuleActiveResponse{
		Message: message,
		Rule:    toPricingRuleItem(rule),
	}, nil
}

func (f *PricingAdminFlowImpl) loadProperty(ctx context.Context, propertyID string) (*models.Property, error) {
	id, err := uuid.Parse(strings.TrimSpace(propertyID))
	if err != nil {
		return nil, NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", ErrPropertyNotFound)
	}
	property, err := f.propertyRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("PROPERTY_LOOKUP_FAILED", "Failed to load property", err)
	}
	if property == nil {
		return nil, NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", ErrPropertyNotFound)
	}
	return property, nil
}

// invalidate drops cached pricing data after a write; failures only leave data stale until the TTL runs out
func (f *PricingAdminFlowImpl) invalidate(ctx context.Context, property *models.Property) {
	if f.cache == nil || property == nil {
		return
	}
	if err := f.cache.Invalidate(ctx, property.UUID, property.ID); err != nil {
		f.logger.Warn("Pricing cache invalidation failed",
			zap.String("property_id", property.UUID.String()),
			zap.Error(errors.Join(ErrCacheInvalidationFailed, err)),
		)
	}
}

// audit records a successful write together with the admin who made it
func (f *PricingAdminFlowImpl) audit(ctx context.Context, action string, property *models.Property, fields ...zap.Field) {
	md := ClientMetadataFromContext(ctx)
	logged := []zap.Field{
		zap.String("action", action),
		zap.Uint("admin_id", md.AdminID),
		zap.String("request_id", md.RequestID),
	}
	if property != nil {
		logged = append(logged, zap.String("property_id", property.UUID.String()))
	}
	f.logger.Info("Pricing data changed", append(logged, fields...)...)
}

func toPropertyPricingItem(p *models.Property) dto.AdminPropertyPricingItem {
	return dto.AdminPropertyPricingItem{
		PropertyID:     p.UUID.String(),
		Title:          p.Title,
		Price:          p.Price.String(),
		CommissionRate: formatNullDecimal(p.CommissionRate),
		HostAccountID:  p.HostAccountID,
		CreatedAt:      formatTime(p.CreatedAt),
		UpdatedAt:      formatTime(p.UpdatedAt),
	}
}

func toSeasonalPriceItem(sp *models.SeasonalPrice) dto.AdminSeasonalPriceItem {
	return dto.AdminSeasonalPriceItem{
		UUID:              sp.UUID.String(),
		Name:              sp.Name,
		StartDate:         utils.FormatDate(sp.StartDate),
		EndDate:           utils.FormatDate(sp.EndDate),
		PricePerNight:     sp.PricePerNight.String(),
		WeekendMultiplier: formatNullDecimal(sp.WeekendMultiplier),
		CreatedAt:         formatTime(sp.CreatedAt),
	}
}

func toPricingRuleItem(r *models.PricingRule) dto.AdminPricingRuleItem {
	return dto.AdminPricingRuleItem{
		UUID:            r.UUID.String(),
		Name:            r.Name,
		RuleType:        string(r.RuleType),
		IsActive:        r.IsActive,
		DiscountPercent: r.DiscountPercent.String(),
		Conditions:      r.Conditions,
		StartDate:       formatOptionalDate(r.StartDate),
		EndDate:         formatOptionalDate(r.EndDate),
		CreatedAt:       formatTime(r.CreatedAt),
	}
}
