package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// DeliveryQuantity is one catalog item and how many copies were delivered.
type DeliveryQuantity struct {
	ItemID   utils.SixID
	Quantity int
}

// RecordDeliveryInput is what a hoker submits for one customer and day.
type RecordDeliveryInput struct {
	CustomerID utils.SixID
	Date       time.Time
	Newspapers []DeliveryQuantity
	Booklets   []DeliveryQuantity
	Extra      *models.ExtraDelivery
}

// DeliveryFilter narrows agent delivery listings. Zero values are ignored.
type DeliveryFilter struct {
	CustomerID *utils.SixID
	HokerID    *utils.SixID
	From       time.Time // inclusive
	To         time.Time // exclusive
}

// IDeliveryService records and lists hoker deliveries.
type IDeliveryService interface {
	Record(ctx context.Context, hokerID utils.SixID, in RecordDeliveryInput) (*models.HokerDelivery, error)
	ListForHoker(ctx context.Context, hokerID utils.SixID, date time.Time) ([]models.HokerDelivery, error)
	ListForCustomer(ctx context.Context, customerID utils.SixID, year, month int) ([]models.HokerDelivery, error)
	ListForAgent(ctx context.Context, agentID utils.SixID, f DeliveryFilter) ([]models.HokerDelivery, error)
}

type deliveryService struct {
	db      *mongo.Database
	catalog ICatalogService
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(db *mongo.Database, catalog ICatalogService) IDeliveryService {
	return &deliveryService{db: db, catalog: catalog}
}

func (s *deliveryService) coll() *mongo.Collection {
	return s.db.Collection(db.DeliveriesCollection)
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns [first day of month, first day of next month) in UTC.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func validMonth(year, month int) error {
	if month < 1 || month > 12 || year < 2000 || year > 9999 {
		return fmt.Errorf("%w: invalid year/month %d/%d", ErrValidation, year, month)
	}
	return nil
}

func (s *deliveryService) priceItems(ctx context.Context, kind models.CatalogKind, qs []DeliveryQuantity) ([]models.DeliveredItem, error) {
	ids := make([]utils.SixID, 0, len(qs))
	for _, q := range qs {
		if q.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		ids = append(ids, q.ItemID)
	}
	catalog, err := s.catalog.Resolve(ctx, kind, ids)
	if err != nil {
		return nil, err
	}

	merged := make(map[utils.SixID]int, len(qs))
	items := make([]models.DeliveredItem, 0, len(qs))
	for _, q := range qs {
		if i, ok := merged[q.ItemID]; ok {
			items[i].Quantity += q.Quantity
			continue
		}
		it := catalog[q.ItemID]
		merged[q.ItemID] = len(items)
		items = append(items, models.DeliveredItem{
			ItemID:    q.ItemID,
			Name:      it.Name,
			Quantity:  q.Quantity,
			UnitPrice: it.Price,
		})
	}
	return items, nil
}

// Record stores the day's delivery for a customer, replacing any earlier record
// for the same customer and date. The customer must be assigned to the hoker and
// actively allotted to the hoker's agent.
func (s *deliveryService) Record(ctx context.Context, hokerID utils.SixID, in RecordDeliveryInput) (*models.HokerDelivery, error) {
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if in.Extra != nil && in.Extra.Amount < 0 {
		return nil, fmt.Errorf("%w: extra amount must not be negative", ErrValidation)
	}

	var hoker models.Hoker
	if err := findOne(ctx, s.db.Collection(db.HokersCollection), bson.M{"_id": hokerID}, &hoker); err != nil {
		return nil, err
	}
	assigned, err := s.db.Collection(db.CustomersCollection).CountDocuments(ctx, bson.M{"_id": in.CustomerID, "hoker": hokerID})
	if err != nil {
		return nil, fmt.Errorf("error checking customer assignment: %w", err)
	}
	allotted, err := s.db.Collection(db.AllotedCustomersCollection).CountDocuments(ctx,
		bson.M{"customerId": in.CustomerID, "agentId": hoker.AgentID, "is_active": true})
	if err != nil {
		return nil, fmt.Errorf("error checking allotment: %w", err)
	}
	if assigned == 0 || allotted == 0 {
		return nil, ErrForbidden
	}

	newspapers, err := s.priceItems(ctx, models.KindNewspaper, in.Newspapers)
	if err != nil {
		return nil, err
	}
	booklets, err := s.priceItems(ctx, models.KindBooklet, in.Booklets)
	if err != nil {
		return nil, err
	}
	if len(newspapers) == 0 && len(booklets) == 0 && in.Extra == nil {
		return nil, fmt.Errorf("%w: nothing delivered", ErrValidation)
	}

	delivery := &models.HokerDelivery{
		AgentID:    hoker.AgentID,
		HokerID:    hokerID,
		CustomerID: in.CustomerID,
		Date:       DayStart(in.Date),
		Newspapers: newspapers,
		Booklets:   booklets,
		Extra:      in.Extra,
	}

	filter := bson.M{"customerId": in.CustomerID, "date": delivery.Date}
	var existing models.HokerDelivery
	switch err := findOne(ctx, s.coll(), filter, &existing); {
	case err == nil:
		delivery.Base = existing.Base
	case errors.Is(err, mongo.ErrNoDocuments):
		delivery.GenID()
	default:
		return nil, err
	}
	delivery.Touch(time.Now().UTC())

	if _, err := s.coll().ReplaceOne(ctx, filter, delivery, options.Replace().SetUpsert(true)); err != nil {
		return nil, fmt.Errorf("error recording delivery for customer %s: %w", in.CustomerID, err)
	}
	return delivery, nil
}

func (s *deliveryService) find(ctx context.Context, filter bson.M) ([]models.HokerDelivery, error) {
	cursor, err := s.coll().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "customerId", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing deliveries: %w", err)
	}
	deliveries := []models.HokerDelivery{}
	if err := cursor.All(ctx, &deliveries); err != nil {
		return nil, fmt.Errorf("error decoding deliveries: %w", err)
	}
	return deliveries, nil
}

// ListForHoker returns what the hoker recorded on the given day.
func (s *deliveryService) ListForHoker(ctx context.Context, hokerID utils.SixID, date time.Time) ([]models.HokerDelivery, error) {
	return s.find(ctx, bson.M{"hokerId": hokerID, "date": DayStart(date)})
}

// ListForCustomer returns the customer's delivery log for a month.
func (s *deliveryService) ListForCustomer(ctx context.Context, customerID utils.SixID, year, month int) ([]models.HokerDelivery, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	from, to := MonthRange(year, month)
	return s.find(ctx, bson.M{"customerId": customerID, "date": bson.M{"$gte": from, "$lt": to}})
}

// ListForAgent returns deliveries made on behalf of the agent.
func (s *deliveryService) ListForAgent(ctx context.Context, agentID utils.SixID, f DeliveryFilter) ([]models.HokerDelivery, error) {
	filter := bson.M{"agentId": agentID}
	if f.CustomerID != nil {
		filter["customerId"] = *f.CustomerID
	}
	if f.HokerID != nil {
		filter["hokerId"] = *f.HokerID
	}
	date := bson.M{}
	if !f.From.IsZero() {
		date["$gte"] = DayStart(f.From)
	}
	if !f.To.IsZero() {
		date["$lt"] = DayStart(f.To)
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	return s.find(ctx, filter)
}
