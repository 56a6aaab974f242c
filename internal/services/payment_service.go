package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// IPaymentService runs the pay request workflow: a customer asks the agent to
// collect a bill, the agent accepts (bill paid) or rejects it.
type IPaymentService interface {
	Create(ctx context.Context, customerID, billID utils.SixID, note string) (*models.PayRequest, error)
	GetForCustomer(ctx context.Context, customerID, requestID utils.SixID) (*models.PayRequest, error)
	ListPending(ctx context.Context, agentID utils.SixID) ([]models.PayRequest, error)
	Resolve(ctx context.Context, agentID, requestID utils.SixID, action models.PayAction) (*models.PayRequest, error)
	History(ctx context.Context, agentID, customerID *utils.SixID) ([]models.PayRequest, error)
}

type paymentService struct {
	db       *mongo.Database
	notifier Notifier
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(db *mongo.Database, notifier Notifier) IPaymentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &paymentService{db: db, notifier: notifier}
}

func (s *paymentService) requests() *mongo.Collection {
	return s.db.Collection(db.PayRequestsCollection)
}

func (s *paymentService) history() *mongo.Collection {
	return s.db.Collection(db.PayRequestHistoryCollection)
}

func (s *paymentService) bills() *mongo.Collection {
	return s.db.Collection(db.BillsCollection)
}

// Create queues a pay request for a bill of the customer and moves the bill to
// pending. Only one pending request may exist per bill.
func (s *paymentService) Create(ctx context.Context, customerID, billID utils.SixID, note string) (*models.PayRequest, error) {
	var bill models.GeneratedBill
	if err := findOne(ctx, s.bills(), bson.M{"_id": billID}, &bill); err != nil {
		return nil, err
	}
	if bill.CustomerID != customerID {
		return nil, ErrForbidden
	}
	if bill.Status == models.BillStatusPaid {
		return nil, ErrBillAlreadyPaid
	}

	count, err := s.requests().CountDocuments(ctx, bson.M{"billId": billID, "status": models.PayRequestPending})
	if err != nil {
		return nil, fmt.Errorf("error checking pay requests for bill %s: %w", billID, err)
	}
	if count > 0 {
		return nil, ErrPayRequestExists
	}

	req := &models.PayRequest{
		BillID:     billID,
		CustomerID: customerID,
		AgentID:    bill.AgentID,
		Amount:     bill.TotalAmount,
		Note:       note,
		Status:     models.PayRequestPending,
	}
	now := time.Now().UTC()
	req.Touch(now)

	err = db.RunInTransaction(ctx, s.db.Client(), func(ctx context.Context) error {
		err := db.Try(func() error {
			req.GenID()
			_, err := s.requests().InsertOne(ctx, req)
			return err
		})
		if err != nil {
			if db.IsDuplicateOnIndex(err, db.IndexPendingPayRequestUnique) {
				return ErrPayRequestExists
			}
			return fmt.Errorf("error inserting pay request: %w", err)
		}

		// A bill left pending by an interrupted earlier attempt keeps its previousStatus.
		_, err = s.bills().UpdateOne(ctx,
			bson.M{"_id": billID, "status": bson.M{"$in": bson.A{models.BillStatusNew, models.BillStatusUnpaid}}},
			mongo.Pipeline{{{Key: "$set", Value: bson.M{
				"previousStatus": "$status",
				"status":         models.BillStatusPending,
				"updatedAt":      now,
			}}}},
		)
		if err != nil {
			return fmt.Errorf("error marking bill %s pending: %w", billID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L().Infow("Pay request created", "request_id", req.ID, "bill_id", billID, "customer_id", customerID)
	return req, nil
}

// GetForCustomer returns a queued request of the customer. Resolved requests are
// no longer in the queue and yield mongo.ErrNoDocuments.
func (s *paymentService) GetForCustomer(ctx context.Context, customerID, requestID utils.SixID) (*models.PayRequest, error) {
	var req models.PayRequest
	if err := findOne(ctx, s.requests(), bson.M{"_id": requestID, "customerId": customerID}, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPending returns the agent's queue, oldest first.
func (s *paymentService) ListPending(ctx context.Context, agentID utils.SixID) ([]models.PayRequest, error) {
	cursor, err := s.requests().Find(ctx,
		bson.M{"agentId": agentID, "status": models.PayRequestPending},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("error listing pay requests for agent %s: %w", agentID, err)
	}
	reqs := []models.PayRequest{}
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("error decoding pay requests: %w", err)
	}
	return reqs, nil
}

// Resolve accepts or rejects a queued request. The bill update, the history record
// and the queue removal run in one transaction. Without transaction support they
// run in that order, each step idempotent, so repeating the call after a crash
// finishes the job.
func (s *paymentService) Resolve(ctx context.Context, agentID, requestID utils.SixID, action models.PayAction) (*models.PayRequest, error) {
	if action != models.PayActionAccept && action != models.PayActionReject {
		return nil, fmt.Errorf("%w: action must be accept or reject", ErrValidation)
	}

	var req models.PayRequest
	if err := findOne(ctx, s.requests(), bson.M{"_id": requestID}, &req); err != nil {
		return nil, err
	}
	if req.AgentID != agentID {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	resolved := req
	resolved.ResolvedAt = &now
	resolved.UpdatedAt = now
	resolved.Status = models.PayRequestRejected
	if action == models.PayActionAccept {
		resolved.Status = models.PayRequestAccepted
	}

	err := db.RunInTransaction(ctx, s.db.Client(), func(ctx context.Context) error {
		if err := s.applyToBill(ctx, req.BillID, action, now); err != nil {
			return err
		}
		if _, err := s.history().ReplaceOne(ctx, bson.M{"_id": resolved.ID}, &resolved, options.Replace().SetUpsert(true)); err != nil {
			return fmt.Errorf("error recording pay request history: %w", err)
		}
		if _, err := s.requests().DeleteOne(ctx, bson.M{"_id": req.ID}); err != nil {
			return fmt.Errorf("error removing pay request %s: %w", req.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L().Infow("Pay request resolved", "request_id", req.ID, "bill_id", req.BillID, "status", resolved.Status)
	s.notifyResolved(ctx, &resolved)
	return &resolved, nil
}

func (s *paymentService) applyToBill(ctx context.Context, billID utils.SixID, action models.PayAction, now time.Time) error {
	var update mongo.Pipeline
	if action == models.PayActionAccept {
		update = paidUpdate(now)
	} else {
		update = mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"status":    bson.M{"$ifNull": bson.A{"$previousStatus", models.BillStatusUnpaid}},
				"updatedAt": now,
			}}},
			{{Key: "$unset", Value: "previousStatus"}},
		}
	}

	res, err := s.bills().UpdateOne(ctx, bson.M{"_id": billID, "status": models.BillStatusPending}, update)
	if err != nil {
		return fmt.Errorf("error updating bill %s: %w", billID, err)
	}
	if res.MatchedCount > 0 || action == models.PayActionReject {
		return nil
	}

	// Not pending: fine if an interrupted earlier attempt already paid it.
	var bill models.GeneratedBill
	if err := findOne(ctx, s.bills(), bson.M{"_id": billID}, &bill); err != nil {
		return err
	}
	if bill.Status == models.BillStatusPaid {
		return nil
	}
	return fmt.Errorf("%w: bill %s is %s, not pending", ErrValidation, billID, bill.Status)
}

func (s *paymentService) notifyResolved(ctx context.Context, req *models.PayRequest) {
	var customer models.Customer
	if err := findOne(ctx, s.db.Collection(db.CustomersCollection), bson.M{"_id": req.CustomerID}, &customer); err != nil {
		logger.L().Warnw("Pay request for unknown customer", "request_id", req.ID, "error", err)
		return
	}
	templateID := models.TemplatePayRequestRejected
	if req.Status == models.PayRequestAccepted {
		templateID = models.TemplatePayRequestAccepted
	}
	err := s.notifier.Notify(ctx, customer.Email, templateID, map[string]interface{}{
		"name":   customer.Name,
		"amount": fmt.Sprintf("%.2f", req.Amount),
		"billId": req.BillID.String(),
	})
	if err != nil {
		logger.L().Warnw("Failed to queue pay request email", "request_id", req.ID, "error", err)
	}
}

// History returns resolved requests, newest first, for an agent and/or a customer.
func (s *paymentService) History(ctx context.Context, agentID, customerID *utils.SixID) ([]models.PayRequest, error) {
	filter := bson.M{}
	if agentID != nil {
		filter["agentId"] = *agentID
	}
	if customerID != nil {
		filter["customerId"] = *customerID
	}
	cursor, err := s.history().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "resolvedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing pay request history: %w", err)
	}
	reqs := []models.PayRequest{}
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("error decoding pay request history: %w", err)
	}
	return reqs, nil
}
