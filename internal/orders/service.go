package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
	"github.com/wastetotreasure/w2t-backend/pkg/pagination"
	"github.com/wastetotreasure/w2t-backend/pkg/square"
)

// SubmitInput is the payload the confirmation step hands to the order
// submission service. Shipping name and cost come from the session snapshot,
// never from the live catalog.
type SubmitInput struct {
	PaymentMethodID   string
	ShippingAddressID uuid.UUID
	ShippingMethodID  string
	ShippingName      string
	ShippingCostCents int64
	IdempotencyKey    string
}

// Service builds and charges orders.
type Service interface {
	Submit(ctx context.Context, buyerID uuid.UUID, input SubmitInput) (*models.Order, *SubmitFailure, error)
	List(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	Get(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error)
}

type cartReader interface {
	Items(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, error)
}

type customerProvider interface {
	EnsureSquareCustomer(ctx context.Context, userID uuid.UUID) (string, error)
}

type paymentCreator interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the order submission service.
type ServiceParams struct {
	Repo              Repository
	Cart              cartReader
	Customers         customerProvider
	Gateway           paymentCreator
	TransactionRunner txRunner

	LocationID     string
	Currency       string
	MinChargeCents int64
}

type service struct {
	repo           Repository
	cart           cartReader
	customers      customerProvider
	gateway        paymentCreator
	txRunner       txRunner
	locationID     string
	currency       string
	minChargeCents int64
}

// NewService constructs the order submission service.
func NewService(params ServiceParams) (*service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart reader required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer provider required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}

	return &service{
		repo:           params.Repo,
		cart:           params.Cart,
		customers:      params.Customers,
		gateway:        params.Gateway,
		txRunner:       params.TransactionRunner,
		locationID:     params.LocationID,
		currency:       params.Currency,
		minChargeCents: params.MinChargeCents,
	}, nil
}

// Submit prices the cart, charges the stored payment method, and persists
// the order with its line items. A non-nil SubmitFailure means the attempt
// failed in a way the caller must handle; an error means the attempt could
// not be evaluated at all.
func (s *service) Submit(ctx context.Context, buyerID uuid.UUID, input SubmitInput) (*models.Order, *SubmitFailure, error) {
	if buyerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	paymentMethodID := strings.TrimSpace(input.PaymentMethodID)
	if paymentMethodID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required")
	}
	if input.ShippingAddressID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address id is required")
	}
	if strings.TrimSpace(input.ShippingMethodID) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping method id is required")
	}

	items, err := s.cart.Items(ctx, buyerID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	if len(items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	var subtotal int64
	for _, item := range items {
		subtotal += item.SubtotalCents()
	}
	total := subtotal + input.ShippingCostCents

	if s.minChargeCents > 0 && total < s.minChargeCents {
		return nil, &SubmitFailure{
			Kind:         FailureAmountTooSmall,
			Message:      fmt.Sprintf("order total %d is below the processing minimum %d", total, s.minChargeCents),
			MinimumCents: s.minChargeCents,
			CurrentCents: total,
		}, nil
	}

	customerID, err := s.customers.EnsureSquareCustomer(ctx, buyerID)
	if err != nil {
		return nil, nil, err
	}

	payment, err := s.gateway.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    total,
		Currency:       s.currency,
		LocationID:     s.locationID,
		CustomerID:     customerID,
		SourceID:       paymentMethodID,
		IdempotencyKey: strings.TrimSpace(input.IdempotencyKey),
		ReferenceID:    buyerID.String(),
	})
	if err != nil {
		return nil, classifyChargeError(err, paymentMethodID), nil
	}
	paymentID := ""
	if payment != nil && payment.GetID() != nil {
		paymentID = *payment.GetID()
	}
	if paymentID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway payment missing id")
	}

	order := &models.Order{
		BuyerID:           buyerID,
		ShippingAddressID: input.ShippingAddressID,
		ShippingMethodID:  input.ShippingMethodID,
		ShippingName:      input.ShippingName,
		ShippingCostCents: input.ShippingCostCents,
		SubtotalCents:     subtotal,
		TotalCents:        total,
		PaymentID:         paymentID,
		PaymentMethodID:   paymentMethodID,
		Status:            enums.OrderStatusPaid,
	}

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Create(ctx, order); err != nil {
			return err
		}
		lineItems := make([]models.OrderLineItem, 0, len(items))
		for _, item := range items {
			listingID := item.ListingID
			lineItems = append(lineItems, models.OrderLineItem{
				OrderID:        order.ID,
				ListingID:      &listingID,
				Title:          item.Title,
				UnitPriceCents: item.UnitPriceCents,
				Quantity:       item.Quantity,
				TotalCents:     item.SubtotalCents(),
			})
		}
		if err := txRepo.CreateLineItems(ctx, lineItems); err != nil {
			return err
		}
		order.Items = lineItems
		return nil
	}); err != nil {
		// The charge went through; surface loudly rather than retrying it.
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order after charge")
	}

	return order, nil, nil
}

// List returns the buyer's order history, newest first.
func (s *service) List(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if buyerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	rows, next, err := s.repo.ListByBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, next, nil
}

// Get loads a single order scoped to the buyer.
func (s *service) Get(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	if buyerID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and order id are required")
	}
	order, err := s.repo.FindByID(ctx, buyerID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func classifyChargeError(err error, paymentMethodID string) *SubmitFailure {
	if square.IsCardUnusable(err) {
		return &SubmitFailure{
			Kind:            FailurePaymentMethodBurned,
			Message:         "the stored payment method can no longer be charged",
			PaymentMethodID: paymentMethodID,
		}
	}
	message := "order submission failed, nothing was charged"
	if detail := strings.TrimSpace(err.Error()); detail != "" {
		message = detail
	}
	return &SubmitFailure{
		Kind:    FailureGeneric,
		Message: message,
	}
}
