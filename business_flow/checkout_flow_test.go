package businessflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/staybook/app/dto"
	"github.com/amirphl/staybook/app/services"
	businessflow "github.com/amirphl/staybook/business_flow"
	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/pricing"
	"github.com/amirphl/staybook/repository"
	testingutil "github.com/amirphl/staybook/testing"
	"github.com/amirphl/staybook/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	sessionReq  *services.CheckoutSessionRequest
	sessionErr  error
	transferReq *services.TransferRequest
	transfers   int
	transferErr error
	event       *services.WebhookEvent
	parseErr    error
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, req services.CheckoutSessionRequest) (*services.CheckoutSession, error) {
	p.sessionReq = &req
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return &services.CheckoutSession{ID: "cs_" + req.Metadata["booking_id"], RedirectURL: "https://pay.example/cs", IntentID: "pi_1"}, nil
}

func (p *fakeProvider) CreateTransfer(_ context.Context, req services.TransferRequest) (*services.Transfer, error) {
	p.transferReq = &req
	p.transfers++
	if p.transferErr != nil {
		return nil, p.transferErr
	}
	return &services.Transfer{ID: "tr_1"}, nil
}

func (p *fakeProvider) ParseWebhook(payload []byte, signature string) (*services.WebhookEvent, error) {
	if p.parseErr != nil {
		return nil, p.parseErr
	}
	return p.event, nil
}

type checkoutFixture struct {
	flow     businessflow.CheckoutFlow
	provider *fakeProvider
	payments repository.BookingPaymentRepository
	property *models.Property
}

func newCheckoutFixture(t *testing.T, testDB *testingutil.TestDB, hostAccount *string) *checkoutFixture {
	t.Helper()
	properties := repository.NewPropertyRepository(testDB.DB)
	payments := repository.NewBookingPaymentRepository(testDB.DB)
	source := pricing.NewRepositorySource(
		properties,
		repository.NewSeasonalPriceRepository(testDB.DB),
		repository.NewPropertyFeeRepository(testDB.DB),
		repository.NewPricingRuleRepository(testDB.DB),
	)
	engine := pricing.NewEngine(source, pricing.DefaultConfig(), pricing.WithClock(func() time.Time {
		return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	}))

	fixtures := testingutil.NewTestFixtures(testDB)
	property, err := fixtures.CreateTestProperty("100")
	require.NoError(t, err)
	if hostAccount != nil {
		property.HostAccountID = hostAccount
		require.NoError(t, testDB.DB.Save(property).Error)
	}
	_, err = fixtures.CreateTestFeeSchedule(property.ID, "50", "0", "0", "200", "10")
	require.NoError(t, err)

	provider := &fakeProvider{}
	return &checkoutFixture{
		flow:     businessflow.NewCheckoutFlow(engine, provider, properties, payments, testDB.DB, "USD", nil),
		provider: provider,
		payments: payments,
		property: property,
	}
}

func checkoutRequest(propertyID string) *dto.CreateCheckoutSessionRequest {
	return &dto.CreateCheckoutSessionRequest{
		PropertyID: propertyID,
		CheckIn:    "2026-11-02",
		CheckOut:   "2026-11-04",
		GuestCount: 2,
		SuccessURL: "https://staybook.app/success",
		CancelURL:  "https://staybook.app/cancel",
	}
}

func TestCheckoutFlow_CreateCheckoutSession(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fx := newCheckoutFixture(t, testDB, nil)
		ctx := testingutil.CreateTestContext()

		// 2 nights at 100, cleaning 50, service fee 30, tax 10% of 280
		res, err := fx.flow.CreateCheckoutSession(ctx, checkoutRequest(fx.property.UUID.String()))
		require.NoError(t, err)
		assert.Equal(t, "308.00", res.Amount)
		assert.Equal(t, "USD", res.Currency)
		assert.Equal(t, "https://pay.example/cs", res.RedirectURL)
		assert.Equal(t, "308.00", res.Quote.Total)

		sent := fx.provider.sessionReq
		require.NotNil(t, sent)
		assert.Equal(t, int64(30800), sent.Amount)
		assert.Equal(t, "usd", sent.Currency)
		assert.Equal(t, res.BookingID, sent.Metadata["booking_id"])
		assert.Equal(t, fx.property.UUID.String(), sent.Metadata["property_id"])
		assert.Equal(t, "checkout-"+res.BookingID, sent.IdempotencyKey)

		payment, err := fx.payments.BySessionID(ctx, res.SessionID)
		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, models.BookingPaymentStatusPending, payment.Status)
		assert.Equal(t, res.BookingID, payment.UUID.String())
		assert.Equal(t, "308", payment.Total.String())
		assert.Equal(t, "30", payment.ServiceFee.String())
		assert.Equal(t, "28", payment.TaxAmount.String())
		assert.Equal(t, "250", payment.HostPayout.String())
		assert.Equal(t, "200", payment.SecurityDeposit.String())
		require.NotNil(t, payment.PaymentIntentID)
		assert.Equal(t, "pi_1", *payment.PaymentIntentID)

		t.Run("UnknownProperty", func(t *testing.T) {
			_, err := fx.flow.CreateCheckoutSession(ctx, checkoutRequest(uuid.NewString()))
			assert.True(t, businessflow.IsPropertyNotFound(err))
		})

		t.Run("InvalidRange", func(t *testing.T) {
			req := checkoutRequest(fx.property.UUID.String())
			req.CheckOut = req.CheckIn
			_, err := fx.flow.CreateCheckoutSession(ctx, req)
			assert.True(t, businessflow.IsInvalidStayRange(err))
		})

		t.Run("ProviderFailure", func(t *testing.T) {
			fx.provider.sessionErr = errors.New("stripe unavailable")
			defer func() { fx.provider.sessionErr = nil }()

			_, err := fx.flow.CreateCheckoutSession(ctx, checkoutRequest(fx.property.UUID.String()))
			assert.True(t, businessflow.IsCheckoutFailed(err))

			count, err := fx.payments.Count(ctx, models.BookingPaymentFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCheckoutFlow_PaymentsDisabled(t *testing.T) {
	flow := businessflow.NewCheckoutFlow(&fakePricer{}, nil, nil, nil, nil, "usd", nil)

	_, err := flow.CreateCheckoutSession(context.Background(), checkoutRequest(uuid.NewString()))
	assert.True(t, businessflow.IsPaymentsDisabled(err))

	_, err = flow.HandlePaymentWebhook(context.Background(), &dto.PaymentWebhookRequest{})
	assert.True(t, businessflow.IsPaymentsDisabled(err))
}

func TestCheckoutFlow_HandlePaymentWebhook(t *testing.T) {
	completed := func(sessionID string) *services.WebhookEvent {
		return &services.WebhookEvent{
			ID:            "evt_1",
			Type:          services.EventCheckoutSessionCompleted,
			SessionID:     sessionID,
			IntentID:      "pi_9",
			PaymentStatus: "paid",
		}
	}

	t.Run("PaysOutHost", func(t *testing.T) {
		err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
			fx := newCheckoutFixture(t, testDB, utils.ToPtr("acct_host"))
			ctx := testingutil.CreateTestContext()

			created, err := fx.flow.CreateCheckoutSession(ctx, checkoutRequest(fx.property.UUID.String()))
			require.NoError(t, err)

			fx.provider.event = completed(created.SessionID)
			res, err := fx.flow.HandlePaymentWebhook(ctx, &dto.PaymentWebhookRequest{Payload: []byte("{}"), Signature: "sig"})
			require.NoError(t, err)
			assert.True(t, res.Handled)
			assert.Equal(t, created.BookingID, res.BookingID)
			assert.Equal(t, string(models.BookingPaymentStatusTransferred), res.Status)

			transfer := fx.provider.transferReq
			require.NotNil(t, transfer)
			assert.Equal(t, int64(25000), transfer.Amount)
			assert.Equal(t, "acct_host", transfer.DestinationAccount)
			assert.Equal(t, created.BookingID, transfer.TransferGroup)
			assert.Equal(t, "payout-"+created.BookingID, transfer.IdempotencyKey)

			payment, err := fx.payments.BySessionID(ctx, created.SessionID)
			require.NoError(t, err)
			assert.Equal(t, models.BookingPaymentStatusTransferred, payment.Status)
			require.NotNil(t, payment.TransferID)
			assert.Equal(t, "tr_1", *payment.TransferID)
			assert.Equal(t, "pi_9", *payment.PaymentIntentID)
			assert.NotNil(t, payment.PaidAt)

			// replayed delivery
			res, err = fx.flow.HandlePaymentWebhook(ctx, &dto.PaymentWebhookRequest{})
			require.NoError(t, err)
			assert.False(t, res.Handled)
			assert.Equal(t, 1, fx.provider.transfers)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("NoHostAccount", func(t *testing.T) {
		err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
			fx := newCheckoutFixture(t, testDB, nil)
			ctx := testingutil.CreateTestContext()

			created, err := fx.flow.CreateCheckoutSession(ctx, checkoutRequest(fx.property.UUID.String()))
			require.NoError(t, err)

			fx.provider.event = completed(created.SessionID)
			res, err := fx.flow.HandlePaymentWebhook(ctx, &dto.PaymentWebhookRequest{})
			require.NoError(t, err)
			assert.True(t, res.Handled)
			assert.Equal(t, string(models.BookingPaymentStatusPaid), res.Status)
			assert.Zero(t, fx.provider.transfers)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("TransferFailure", func(t *testing.T) {
		err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
			fx := newCheckoutFixture(t, testDB, utils.ToPtr("acct_host"))
			ctx := testingutil.CreateTestContext()

			created, err := fx.flow.CreateCheckoutSession(ctx, checkoutRequest(fx.property.UUID.String()))
			require.NoError(t, err)

			fx.provider.transferErr = errors.New("insufficient platform balance")
			fx.provider.event = completed(created.SessionID)
			res, err := fx.flow.HandlePaymentWebhook(ctx, &dto.PaymentWebhookRequest{})
			require.NoError(t, err)
			assert.Equal(t, string(models.BookingPaymentStatusFailed), res.Status)

			payment, err := fx.payments.BySessionID(ctx, created.SessionID)
			require.NoError(t, err)
			assert.Equal(t, models.BookingPaymentStatusFailed, payment.Status)
			assert.Contains(t, payment.StatusReason, "insufficient platform balance")
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("ExpiredSession", func(t *testing.T) {
		err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
			fx := newCheckoutFixture(t, testDB, nil)
			ctx := testingutil.CreateTestContext()

			payment, err := testingutil.NewTestFixtures(testDB).CreateTestBookingPayment(fx.property.ID, "cs_expired")
			require.NoError(t, err)

			fx.provider.event = &services.WebhookEvent{ID: "evt_2", Type: services.EventCheckoutSessionExpired, SessionID: "cs_expired"}
			res, err := fx.flow.HandlePaymentWebhook(ctx, &dto.PaymentWebhookRequest{})
			require.NoError(t, err)
			assert.True(t, res.Handled)
			assert.Equal(t, payment.UUID.String(), res.BookingID)
			assert.Equal(t, string(models.BookingPaymentStatusFailed), res.Status)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("UnpaidCompletionWaits", func(t *testing.T) {
		err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
			fx := newCheckoutFixture(t, testDB, nil)
			ctx := testingutil.CreateTestContext()

			_, err := testingutil.NewTestFixtures(testDB).CreateTestBookingPayment(fx.property.ID, "cs_async")
			require.NoError(t, err)

			event := completed("cs_async")
			event.PaymentStatus = "unpaid"
			fx.provider.event = event
			res, err := fx.flow.HandlePaymentWebhook(ctx, &dto.PaymentWebhookRequest{})
			require.NoError(t, err)
			assert.False(t, res.Handled)

			payment, err := fx.payments.BySessionID(ctx, "cs_async")
			require.NoError(t, err)
			assert.True(t, payment.IsPending())
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("UnknownSessionAndOtherEvents", func(t *testing.T) {
		err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
			fx := newCheckoutFixture(t, testDB, nil)
			ctx := testingutil.CreateTestContext()

			fx.provider.event = completed("cs_missing")
			_, err := fx.flow.HandlePaymentWebhook(ctx, &dto.PaymentWebhookRequest{})
			assert.True(t, businessflow.IsPaymentNotFound(err))

			fx.provider.event = &services.WebhookEvent{ID: "evt_3", Type: "charge.refunded"}
			res, err := fx.flow.HandlePaymentWebhook(ctx, &dto.PaymentWebhookRequest{})
			require.NoError(t, err)
			assert.False(t, res.Handled)
			assert.Equal(t, "charge.refunded", res.EventType)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("BadSignature", func(t *testing.T) {
		provider := &fakeProvider{parseErr: services.ErrInvalidWebhookSignature}
		flow := businessflow.NewCheckoutFlow(&fakePricer{}, provider, nil, nil, nil, "usd", nil)

		_, err := flow.HandlePaymentWebhook(context.Background(), &dto.PaymentWebhookRequest{})
		assert.True(t, businessflow.IsInvalidWebhook(err))
		assert.ErrorIs(t, err, services.ErrInvalidWebhookSignature)
	})
}
