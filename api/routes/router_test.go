package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wastetotreasure/w2t-backend/internal/address"
	"github.com/wastetotreasure/w2t-backend/internal/auth"
	"github.com/wastetotreasure/w2t-backend/internal/cart"
	checkoutsvc "github.com/wastetotreasure/w2t-backend/internal/checkout"
	"github.com/wastetotreasure/w2t-backend/internal/checkoutsession"
	"github.com/wastetotreasure/w2t-backend/internal/listings"
	"github.com/wastetotreasure/w2t-backend/internal/orders"
	"github.com/wastetotreasure/w2t-backend/internal/payments"
	pkgAuth "github.com/wastetotreasure/w2t-backend/pkg/auth"
	"github.com/wastetotreasure/w2t-backend/pkg/auth/session"
	"github.com/wastetotreasure/w2t-backend/pkg/config"
	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	"github.com/wastetotreasure/w2t-backend/pkg/logger"
	"github.com/wastetotreasure/w2t-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	return &auth.TokenPair{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error { return nil }

type stubAddressService struct{}

func (stubAddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return nil, nil
}

func (stubAddressService) Create(ctx context.Context, userID uuid.UUID, input address.CreateInput) (*models.Address, error) {
	return &models.Address{}, nil
}

func (stubAddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return nil
}

func (stubAddressService) Belongs(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	return true, nil
}

func (stubAddressService) ChooseSelected(addresses []models.Address, sess *checkoutsession.Session) *models.Address {
	return nil
}

type stubListingsService struct{}

func (stubListingsService) Create(ctx context.Context, sellerID uuid.UUID, input listings.CreateInput) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (stubListingsService) Update(ctx context.Context, sellerID, listingID uuid.UUID, input listings.UpdateInput) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (stubListingsService) Remove(ctx context.Context, sellerID, listingID uuid.UUID) error {
	return nil
}

func (stubListingsService) ListMine(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Listing, string, error) {
	return nil, "", nil
}

func (stubListingsService) Browse(ctx context.Context, filter listings.BrowseFilter, params pagination.Params) ([]models.Listing, string, error) {
	return nil, "", nil
}

func (stubListingsService) Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (stubListingsService) FindByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (stubListingsService) Moderate(ctx context.Context, adminID, listingID uuid.UUID, input listings.ModerateInput) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (stubListingsService) ListPending(ctx context.Context, params pagination.Params) ([]models.Listing, string, error) {
	return nil, "", nil
}

func (stubListingsService) Report(ctx context.Context, reporterID, listingID uuid.UUID, input listings.ReportInput) (*models.ListingReport, error) {
	return &models.ListingReport{}, nil
}

func (stubListingsService) ListReports(ctx context.Context, status enums.ReportStatus, params pagination.Params) ([]models.ListingReport, string, error) {
	return nil, "", nil
}

func (stubListingsService) ResolveReport(ctx context.Context, adminID, reportID uuid.UUID, input listings.ResolveReportInput) (*models.ListingReport, error) {
	return &models.ListingReport{}, nil
}

type stubCartService struct{}

func (stubCartService) Summarize(ctx context.Context, buyerID uuid.UUID) (*cart.Summary, error) {
	return &cart.Summary{}, nil
}

func (stubCartService) Items(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, error) {
	return nil, nil
}

func (stubCartService) AddItem(ctx context.Context, buyerID, listingID uuid.UUID, quantity int) (*models.CartItem, error) {
	return &models.CartItem{}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, buyerID, listingID uuid.UUID) error {
	return nil
}

func (stubCartService) Clear(ctx context.Context, buyerID uuid.UUID) error { return nil }

type stubPaymentsService struct{}

func (stubPaymentsService) Reconcile(ctx context.Context, buyerID uuid.UUID) (*payments.ReconcileResult, error) {
	return &payments.ReconcileResult{}, nil
}

func (stubPaymentsService) AddMethod(ctx context.Context, buyerID uuid.UUID, input payments.AddMethodInput) (*payments.AddMethodResult, error) {
	return &payments.AddMethodResult{}, nil
}

func (stubPaymentsService) DeleteMethod(ctx context.Context, buyerID uuid.UUID, methodID string) (*payments.DeleteMethodResult, error) {
	return &payments.DeleteMethodResult{}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Gate(ctx context.Context, buyerID uuid.UUID) (*checkoutsvc.GateResult, error) {
	return &checkoutsvc.GateResult{Session: checkoutsession.NewSession()}, nil
}

func (stubCheckoutService) SelectAddress(ctx context.Context, buyerID uuid.UUID, input checkoutsvc.SelectAddressInput) (*checkoutsession.Session, error) {
	return checkoutsession.NewSession(), nil
}

func (stubCheckoutService) Submit(ctx context.Context, buyerID uuid.UUID, idempotencyKey string) (*checkoutsvc.SubmitResult, error) {
	return &checkoutsvc.SubmitResult{Order: &models.Order{}}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Submit(ctx context.Context, buyerID uuid.UUID, input orders.SubmitInput) (*models.Order, *orders.SubmitFailure, error) {
	return &models.Order{}, nil, nil
}

func (stubOrdersService) List(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (stubOrdersService) Get(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:        cfg,
		Logger:        logg,
		DB:            stubPinger{},
		Sessions:      stubSessionChecker{},
		CheckoutStore: checkoutsession.NewMemoryStore(),
		AuthService:   stubAuthService{},
		Addresses:     stubAddressService{},
		Listings:      stubListingsService{},
		Cart:          stubCartService{},
		Payments:      stubPaymentsService{},
		Checkout:      stubCheckoutService{},
		Orders:        stubOrdersService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestBrowseListingsNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public browse got %d", resp.Code)
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/api/v1/cart", "/api/v1/addresses", "/api/v1/orders", "/api/v1/checkout/confirmation"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without token on %s got %d", path, resp.Code)
		}
	}
}

func TestProtectedGroupAcceptsBuyerJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart with token got %d", resp.Code)
	}
}

func TestSellerRoutesRequireSellerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	buyer := httptest.NewRequest(http.MethodGet, "/api/v1/seller/listings", nil)
	buyer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, buyer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for buyer on seller routes got %d", resp.Code)
	}

	seller := httptest.NewRequest(http.MethodGet, "/api/v1/seller/listings", nil)
	seller.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleSeller))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, seller)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for seller got %d", resp.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	seller := httptest.NewRequest(http.MethodGet, "/api/v1/admin/listings/pending", nil)
	seller.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleSeller))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, seller)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller on admin routes got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/listings/pending", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestLogoutRequiresToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for logout without token got %d", resp.Code)
	}
}

func TestReportListingRequiresToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+uuid.NewString()+"/report", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous report got %d", resp.Code)
	}
}
