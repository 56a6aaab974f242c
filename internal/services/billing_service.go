package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// GenerateResult summarises one run of monthly bill generation.
type GenerateResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// BillFilter narrows agent bill listings. Zero values are ignored.
type BillFilter struct {
	Status     models.BillStatus
	Year       int
	Month      int
	CustomerID *utils.SixID
}

// IBillingService generates and lists monthly bills.
type IBillingService interface {
	GenerateMonthlyBills(ctx context.Context, agentID utils.SixID, year, month int) (*GenerateResult, error)
	ListCustomerBills(ctx context.Context, customerID utils.SixID) ([]models.BillView, error)
	ListAgentBills(ctx context.Context, agentID utils.SixID, f BillFilter) ([]models.BillView, error)
	GetBill(ctx context.Context, id utils.SixID) (*models.GeneratedBill, error)
	MarkPaid(ctx context.Context, agentID, billID utils.SixID) (*models.GeneratedBill, error)
}

type billingService struct {
	db       *mongo.Database
	cfg      *config.Config
	notifier Notifier
}

// NewBillingService creates a new BillingService.
func NewBillingService(db *mongo.Database, cfg *config.Config, notifier Notifier) IBillingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &billingService{db: db, cfg: cfg, notifier: notifier}
}

func (s *billingService) coll() *mongo.Collection {
	return s.db.Collection(db.BillsCollection)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

type lineKey struct {
	itemID    utils.SixID
	unitPrice float64
}

// BuildLineItems sums a month of deliveries into priced bill lines: one line per
// catalog item and unit price, then one line per extra charge.
func BuildLineItems(deliveries []models.HokerDelivery) ([]models.BillLineItem, float64) {
	index := map[lineKey]int{}
	var items []models.BillLineItem
	add := func(it models.DeliveredItem) {
		k := lineKey{it.ItemID, it.UnitPrice}
		if i, ok := index[k]; ok {
			items[i].Quantity += it.Quantity
			items[i].Amount = roundMoney(float64(items[i].Quantity) * it.UnitPrice)
			return
		}
		id := it.ItemID
		index[k] = len(items)
		items = append(items, models.BillLineItem{
			ItemID:    &id,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Amount:    roundMoney(float64(it.Quantity) * it.UnitPrice),
		})
	}

	sorted := make([]models.HokerDelivery, len(deliveries))
	copy(sorted, deliveries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var extras []models.BillLineItem
	for _, d := range sorted {
		for _, it := range d.Newspapers {
			add(it)
		}
		for _, it := range d.Booklets {
			add(it)
		}
		if d.Extra != nil {
			extras = append(extras, models.BillLineItem{
				Name:      d.Extra.Description + " (" + d.Date.Format("2006-01-02") + ")",
				Quantity:  1,
				UnitPrice: d.Extra.Amount,
				Amount:    roundMoney(d.Extra.Amount),
			})
		}
	}
	items = append(items, extras...)

	total := 0.0
	for _, it := range items {
		total += it.Amount
	}
	if items == nil {
		items = []models.BillLineItem{}
	}
	return items, roundMoney(total)
}

// GenerateMonthlyBills bills every actively allotted customer of the agent for
// the deliveries of the month. Paid and pending bills are left untouched; earlier
// bills still in status new become unpaid.
func (s *billingService) GenerateMonthlyBills(ctx context.Context, agentID utils.SixID, year, month int) (*GenerateResult, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}

	cursor, err := s.db.Collection(db.AllotedCustomersCollection).Find(ctx, bson.M{"agentId": agentID, "is_active": true})
	if err != nil {
		return nil, fmt.Errorf("error listing allotments for agent %s: %w", agentID, err)
	}
	var allotments []models.AllotedCustomer
	if err := cursor.All(ctx, &allotments); err != nil {
		return nil, fmt.Errorf("error decoding allotments: %w", err)
	}

	from, to := MonthRange(year, month)
	cursor, err = s.db.Collection(db.DeliveriesCollection).Find(ctx, bson.M{
		"agentId": agentID,
		"date":    bson.M{"$gte": from, "$lt": to},
	})
	if err != nil {
		return nil, fmt.Errorf("error listing deliveries for agent %s: %w", agentID, err)
	}
	var deliveries []models.HokerDelivery
	if err := cursor.All(ctx, &deliveries); err != nil {
		return nil, fmt.Errorf("error decoding deliveries: %w", err)
	}
	byCustomer := map[utils.SixID][]models.HokerDelivery{}
	for _, d := range deliveries {
		byCustomer[d.CustomerID] = append(byCustomer[d.CustomerID], d)
	}

	result := &GenerateResult{}
	now := time.Now().UTC()
	for _, a := range allotments {
		ds := byCustomer[a.CustomerID]
		if len(ds) == 0 {
			result.Skipped++
			continue
		}
		items, total := BuildLineItems(ds)

		filter := bson.M{
			"agentId":    agentID,
			"customerId": a.CustomerID,
			"year":       year,
			"month":      month,
			"status":     bson.M{"$in": bson.A{models.BillStatusNew, models.BillStatusUnpaid}},
		}
		res, err := s.coll().UpdateOne(ctx, filter, bson.M{"$set": bson.M{
			"items":         items,
			"deliveryCount": len(ds),
			"totalAmount":   total,
			"currencyCode":  s.cfg.CurrencyCode,
			"updatedAt":     now,
		}})
		if err != nil {
			return nil, fmt.Errorf("error updating bill for customer %s: %w", a.CustomerID, err)
		}
		if res.MatchedCount > 0 {
			result.Updated++
			continue
		}

		bill := &models.GeneratedBill{
			AgentID:       agentID,
			CustomerID:    a.CustomerID,
			Year:          year,
			Month:         month,
			Items:         items,
			DeliveryCount: len(ds),
			CurrencyCode:  s.cfg.CurrencyCode,
			TotalAmount:   total,
			Status:        models.BillStatusNew,
		}
		bill.Touch(now)
		err = db.Try(func() error {
			bill.GenID()
			_, err := s.coll().InsertOne(ctx, bill)
			return err
		})
		if err != nil {
			if db.IsMongoDuplicateKeyError(err) {
				// A paid or pending bill already exists for the period.
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("error inserting bill for customer %s: %w", a.CustomerID, err)
		}
		result.Created++
		s.notifyGenerated(ctx, bill)
	}

	_, err = s.coll().UpdateMany(ctx, bson.M{
		"agentId": agentID,
		"status":  models.BillStatusNew,
		"$or": bson.A{
			bson.M{"year": bson.M{"$lt": year}},
			bson.M{"year": year, "month": bson.M{"$lt": month}},
		},
	}, bson.M{"$set": bson.M{"status": models.BillStatusUnpaid, "updatedAt": now}})
	if err != nil {
		return nil, fmt.Errorf("error carrying over unpaid bills: %w", err)
	}

	logger.L().Infow("Monthly bills generated",
		"agent_id", agentID, "year", year, "month", month,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

func (s *billingService) notifyGenerated(ctx context.Context, bill *models.GeneratedBill) {
	var customer models.Customer
	if err := findOne(ctx, s.db.Collection(db.CustomersCollection), bson.M{"_id": bill.CustomerID}, &customer); err != nil {
		logger.L().Warnw("Bill generated for unknown customer", "bill_id", bill.ID, "error", err)
		return
	}
	err := s.notifier.Notify(ctx, customer.Email, models.TemplateBillGenerated, map[string]interface{}{
		"name":     customer.Name,
		"period":   fmt.Sprintf("%02d/%d", bill.Month, bill.Year),
		"amount":   fmt.Sprintf("%.2f", bill.TotalAmount),
		"currency": bill.CurrencyCode,
	})
	if err != nil {
		logger.L().Warnw("Failed to queue bill email", "bill_id", bill.ID, "error", err)
	}
}

// billListPipeline joins customers and orders by models.StatusPriority, then year
// and month descending.
func billListPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.CustomersCollection,
			"localField":   "customerId",
			"foreignField": "_id",
			"as":           "customer",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$customer", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$addFields", Value: bson.M{"priority": models.StatusPriorityExpr()}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "priority", Value: 1},
			{Key: "year", Value: -1},
			{Key: "month", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$project", Value: bson.M{"priority": 0, "customer.password": 0}}},
	}
}

func (s *billingService) listBills(ctx context.Context, match bson.M) ([]models.BillView, error) {
	cursor, err := s.coll().Aggregate(ctx, billListPipeline(match))
	if err != nil {
		return nil, fmt.Errorf("error aggregating bills: %w", err)
	}
	bills := []models.BillView{}
	if err := cursor.All(ctx, &bills); err != nil {
		return nil, fmt.Errorf("error decoding bills: %w", err)
	}
	// Same table as the pipeline; stable, so the pipeline's order within a tier is kept.
	models.SortBills(bills)
	return bills, nil
}

// ListCustomerBills returns the customer's bills: pending first, then unpaid and
// new, then paid, newest period first within each tier.
func (s *billingService) ListCustomerBills(ctx context.Context, customerID utils.SixID) ([]models.BillView, error) {
	return s.listBills(ctx, bson.M{"customerId": customerID})
}

// ListAgentBills returns the agent's bills in the same order as ListCustomerBills.
func (s *billingService) ListAgentBills(ctx context.Context, agentID utils.SixID, f BillFilter) ([]models.BillView, error) {
	match := bson.M{"agentId": agentID}
	if f.Status != "" {
		match["status"] = f.Status
	}
	if f.Year != 0 {
		match["year"] = f.Year
	}
	if f.Month != 0 {
		match["month"] = f.Month
	}
	if f.CustomerID != nil {
		match["customerId"] = *f.CustomerID
	}
	return s.listBills(ctx, match)
}

// GetBill returns a bill or mongo.ErrNoDocuments.
func (s *billingService) GetBill(ctx context.Context, id utils.SixID) (*models.GeneratedBill, error) {
	var bill models.GeneratedBill
	if err := findOne(ctx, s.coll(), bson.M{"_id": id}, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

// paidUpdate sets status paid and copies totalAmount into paidAmount.
func paidUpdate(now time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status":     models.BillStatusPaid,
			"paidAmount": "$totalAmount",
			"paidAt":     now,
			"updatedAt":  now,
		}}},
		{{Key: "$unset", Value: "previousStatus"}},
	}
}

// MarkPaid records a cash collection by the agent. Paid is terminal.
func (s *billingService) MarkPaid(ctx context.Context, agentID, billID utils.SixID) (*models.GeneratedBill, error) {
	now := time.Now().UTC()
	var bill models.GeneratedBill
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{
			"_id":     billID,
			"agentId": agentID,
			"status":  bson.M{"$in": bson.A{models.BillStatusNew, models.BillStatusUnpaid}},
		},
		paidUpdate(now),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&bill)
	if err == nil {
		return &bill, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error marking bill %s paid: %w", billID, err)
	}

	existing, err := s.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	switch {
	case existing.AgentID != agentID:
		return nil, ErrForbidden
	case existing.Status == models.BillStatusPaid:
		return nil, ErrBillAlreadyPaid
	case existing.Status == models.BillStatusPending:
		return nil, ErrPayRequestExists
	default:
		return nil, fmt.Errorf("%w: bill status %s cannot be paid", ErrValidation, existing.Status)
	}
}
