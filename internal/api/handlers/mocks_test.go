package handlers_test

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/utils"
)

// --- Mocks ---

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Signup(ctx context.Context, in services.AdminSignup) (*models.Admin, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAdminService) Login(ctx context.Context, email, password string) (*models.Admin, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAdminService) FindByID(ctx context.Context, id utils.SixID) (*models.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) Signup(ctx context.Context, in services.AgentSignup) (*models.Agent, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) Login(ctx context.Context, email, password string) (*models.Agent, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) FindByID(ctx context.Context, id utils.SixID) (*models.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) UpdateProfile(ctx context.Context, id utils.SixID, in services.AgentProfileUpdate) (*models.Agent, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) List(ctx context.Context, status models.AgentStatus) ([]models.Agent, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Agent), args.Error(1)
}

func (m *MockAgentService) Review(ctx context.Context, id utils.SixID, status models.AgentStatus) (*models.Agent, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) ApprovedIDs(ctx context.Context) ([]utils.SixID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]utils.SixID), args.Error(1)
}

func (m *MockAgentService) SetImage(ctx context.Context, id utils.SixID, key string) error {
	return m.Called(ctx, id, key).Error(0)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Signup(ctx context.Context, in services.CustomerSignup) (*models.Customer, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) Login(ctx context.Context, identifier, password string) (*models.Customer, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) FindByID(ctx context.Context, id utils.SixID) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) FindByIdentifier(ctx context.Context, identifier string) (*models.Customer, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) UpdateProfile(ctx context.Context, id utils.SixID, in services.CustomerProfileUpdate) (*models.Customer, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context) ([]models.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Customer), args.Error(1)
}

type MockHokerService struct {
	mock.Mock
}

func (m *MockHokerService) Create(ctx context.Context, agentID utils.SixID, name, mobile string) (*models.Hoker, error) {
	args := m.Called(ctx, agentID, name, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hoker), args.Error(1)
}

func (m *MockHokerService) ListByAgent(ctx context.Context, agentID utils.SixID) ([]models.Hoker, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Hoker), args.Error(1)
}

func (m *MockHokerService) FindByID(ctx context.Context, id utils.SixID) (*models.Hoker, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hoker), args.Error(1)
}

func (m *MockHokerService) Reset(ctx context.Context, agentID, hokerID utils.SixID) (*models.Hoker, error) {
	args := m.Called(ctx, agentID, hokerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hoker), args.Error(1)
}

func (m *MockHokerService) Login(ctx context.Context, mobile, password string) (*models.Hoker, bool, error) {
	args := m.Called(ctx, mobile, password)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Hoker), args.Bool(1), args.Error(2)
}

func (m *MockHokerService) SetPassword(ctx context.Context, hokerID utils.SixID, password string) error {
	return m.Called(ctx, hokerID, password).Error(0)
}

func (m *MockHokerService) AssignCustomer(ctx context.Context, agentID, customerID utils.SixID, hokerID *utils.SixID) error {
	return m.Called(ctx, agentID, customerID, hokerID).Error(0)
}

func (m *MockHokerService) AssignedCustomers(ctx context.Context, hokerID utils.SixID) ([]models.Customer, error) {
	args := m.Called(ctx, hokerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Customer), args.Error(1)
}

type MockAllotmentService struct {
	mock.Mock
}

func (m *MockAllotmentService) Allot(ctx context.Context, agentID, customerID utils.SixID, ent models.Entitlements) (*models.AllotedCustomer, error) {
	args := m.Called(ctx, agentID, customerID, ent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AllotedCustomer), args.Error(1)
}

func (m *MockAllotmentService) UpdateEntitlements(ctx context.Context, agentID, allotmentID utils.SixID, ent models.Entitlements) (*models.AllotedCustomer, error) {
	args := m.Called(ctx, agentID, allotmentID, ent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AllotedCustomer), args.Error(1)
}

func (m *MockAllotmentService) Deactivate(ctx context.Context, agentID, allotmentID utils.SixID) error {
	return m.Called(ctx, agentID, allotmentID).Error(0)
}

func (m *MockAllotmentService) ListActive(ctx context.Context, agentID utils.SixID) ([]models.AllotedCustomerView, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AllotedCustomerView), args.Error(1)
}

func (m *MockAllotmentService) ActiveForCustomer(ctx context.Context, customerID utils.SixID) (*models.AllotedCustomer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AllotedCustomer), args.Error(1)
}

type MockDeliveryService struct {
	mock.Mock
}

func (m *MockDeliveryService) Record(ctx context.Context, hokerID utils.SixID, in services.RecordDeliveryInput) (*models.HokerDelivery, error) {
	args := m.Called(ctx, hokerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HokerDelivery), args.Error(1)
}

func (m *MockDeliveryService) ListForHoker(ctx context.Context, hokerID utils.SixID, date time.Time) ([]models.HokerDelivery, error) {
	args := m.Called(ctx, hokerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HokerDelivery), args.Error(1)
}

func (m *MockDeliveryService) ListForCustomer(ctx context.Context, customerID utils.SixID, year, month int) ([]models.HokerDelivery, error) {
	args := m.Called(ctx, customerID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HokerDelivery), args.Error(1)
}

func (m *MockDeliveryService) ListForAgent(ctx context.Context, agentID utils.SixID, f services.DeliveryFilter) ([]models.HokerDelivery, error) {
	args := m.Called(ctx, agentID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HokerDelivery), args.Error(1)
}

type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) GenerateMonthlyBills(ctx context.Context, agentID utils.SixID, year, month int) (*services.GenerateResult, error) {
	args := m.Called(ctx, agentID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GenerateResult), args.Error(1)
}

func (m *MockBillingService) ListCustomerBills(ctx context.Context, customerID utils.SixID) ([]models.BillView, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BillView), args.Error(1)
}

func (m *MockBillingService) ListAgentBills(ctx context.Context, agentID utils.SixID, f services.BillFilter) ([]models.BillView, error) {
	args := m.Called(ctx, agentID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BillView), args.Error(1)
}

func (m *MockBillingService) GetBill(ctx context.Context, id utils.SixID) (*models.GeneratedBill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedBill), args.Error(1)
}

func (m *MockBillingService) MarkPaid(ctx context.Context, agentID, billID utils.SixID) (*models.GeneratedBill, error) {
	args := m.Called(ctx, agentID, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedBill), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Create(ctx context.Context, customerID, billID utils.SixID, note string) (*models.PayRequest, error) {
	args := m.Called(ctx, customerID, billID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayRequest), args.Error(1)
}

func (m *MockPaymentService) GetForCustomer(ctx context.Context, customerID, requestID utils.SixID) (*models.PayRequest, error) {
	args := m.Called(ctx, customerID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayRequest), args.Error(1)
}

func (m *MockPaymentService) ListPending(ctx context.Context, agentID utils.SixID) ([]models.PayRequest, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PayRequest), args.Error(1)
}

func (m *MockPaymentService) Resolve(ctx context.Context, agentID, requestID utils.SixID, action models.PayAction) (*models.PayRequest, error) {
	args := m.Called(ctx, agentID, requestID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayRequest), args.Error(1)
}

func (m *MockPaymentService) History(ctx context.Context, agentID, customerID *utils.SixID) ([]models.PayRequest, error) {
	args := m.Called(ctx, agentID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PayRequest), args.Error(1)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) List(ctx context.Context, kind models.CatalogKind, activeOnly bool) ([]models.CatalogItem, error) {
	args := m.Called(ctx, kind, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CatalogItem), args.Error(1)
}

func (m *MockCatalogService) Get(ctx context.Context, kind models.CatalogKind, id utils.SixID) (*models.CatalogItem, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CatalogItem), args.Error(1)
}

func (m *MockCatalogService) Create(ctx context.Context, kind models.CatalogKind, in services.CatalogInput) (*models.CatalogItem, error) {
	args := m.Called(ctx, kind, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CatalogItem), args.Error(1)
}

func (m *MockCatalogService) Update(ctx context.Context, kind models.CatalogKind, id utils.SixID, in services.CatalogInput) (*models.CatalogItem, error) {
	args := m.Called(ctx, kind, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CatalogItem), args.Error(1)
}

func (m *MockCatalogService) Delete(ctx context.Context, kind models.CatalogKind, id utils.SixID) error {
	return m.Called(ctx, kind, id).Error(0)
}

func (m *MockCatalogService) SetImage(ctx context.Context, kind models.CatalogKind, id utils.SixID, key string) error {
	return m.Called(ctx, kind, id, key).Error(0)
}

func (m *MockCatalogService) Resolve(ctx context.Context, kind models.CatalogKind, ids []utils.SixID) (map[utils.SixID]models.CatalogItem, error) {
	args := m.Called(ctx, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[utils.SixID]models.CatalogItem), args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) DumpJSON(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	if fn, ok := args.Get(0).(func(io.Writer) error); ok {
		return fn(w)
	}
	return args.Error(0)
}

func (m *MockExportService) CollectionXLSX(ctx context.Context, collection string, w io.Writer) error {
	args := m.Called(ctx, collection, w)
	if fn, ok := args.Get(0).(func(io.Writer) error); ok {
		return fn(w)
	}
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GeneratePresignedPutURL(ctx context.Context, owner, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, owner, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorage) GetObject(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockStorage) PublicURL(key string) string {
	return m.Called(key).String(0)
}

type MockImageQueue struct {
	mock.Mock
}

func (m *MockImageQueue) EnqueueImage(ctx context.Context, key, target string, targetID utils.SixID) error {
	return m.Called(ctx, key, target, targetID).Error(0)
}

// memorySubscriptions stores selections in memory, preserving what was saved.
type memorySubscriptions struct {
	subs map[utils.SixID]*models.CustomerSubscription
}

func newMemorySubscriptions() *memorySubscriptions {
	return &memorySubscriptions{subs: map[utils.SixID]*models.CustomerSubscription{}}
}

func (m *memorySubscriptions) Save(_ context.Context, customerID utils.SixID, newspapers, booklets []utils.SixID) (*models.CustomerSubscription, error) {
	sub := &models.CustomerSubscription{
		CustomerID: customerID,
		Newspapers: append([]utils.SixID{}, newspapers...),
		Booklets:   append([]utils.SixID{}, booklets...),
	}
	m.subs[customerID] = sub
	return sub, nil
}

func (m *memorySubscriptions) Get(_ context.Context, customerID utils.SixID) (*models.CustomerSubscription, error) {
	if sub, ok := m.subs[customerID]; ok {
		return sub, nil
	}
	return &models.CustomerSubscription{CustomerID: customerID, Newspapers: []utils.SixID{}, Booklets: []utils.SixID{}}, nil
}
