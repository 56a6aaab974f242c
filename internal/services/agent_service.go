package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// AgentSignup is the input for agent registration.
type AgentSignup struct {
	Name       string
	AgencyName string
	Email      string
	Mobile     string
	Password   string
	Address    models.Address
}

// AgentProfileUpdate holds the editable agent fields. Nil fields are left unchanged.
type AgentProfileUpdate struct {
	Name       *string
	AgencyName *string
	Mobile     *string
	Address    *models.Address
}

// IAgentService defines agent account operations.
type IAgentService interface {
	Signup(ctx context.Context, in AgentSignup) (*models.Agent, error)
	Login(ctx context.Context, email, password string) (*models.Agent, error)
	FindByID(ctx context.Context, id utils.SixID) (*models.Agent, error)
	UpdateProfile(ctx context.Context, id utils.SixID, in AgentProfileUpdate) (*models.Agent, error)
	List(ctx context.Context, status models.AgentStatus) ([]models.Agent, error)
	Review(ctx context.Context, id utils.SixID, status models.AgentStatus) (*models.Agent, error)
	ApprovedIDs(ctx context.Context) ([]utils.SixID, error)
	SetImage(ctx context.Context, id utils.SixID, key string) error
}

type agentService struct {
	db       *mongo.Database
	cfg      *config.Config
	notifier Notifier
}

// NewAgentService creates a new AgentService.
func NewAgentService(db *mongo.Database, cfg *config.Config, notifier Notifier) IAgentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &agentService{db: db, cfg: cfg, notifier: notifier}
}

func (s *agentService) coll() *mongo.Collection {
	return s.db.Collection(db.AgentsCollection)
}

// Signup registers an agent in the pending state. An admin must approve it before login.
func (s *agentService) Signup(ctx context.Context, in AgentSignup) (*models.Agent, error) {
	if err := validatePassword(in.Password, s.cfg.PasswordMinLength); err != nil {
		return nil, err
	}
	email, mobile := NormalizeEmail(in.Email), NormalizeMobile(in.Mobile)
	if err := ensureUnique(ctx, s.coll(), nil, bson.M{"email": email, "mobile": mobile}); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	agent := &models.Agent{
		Name:         in.Name,
		AgencyName:   in.AgencyName,
		Email:        email,
		Mobile:       mobile,
		PasswordHash: hash,
		Address:      in.Address,
		Status:       models.AgentStatusPending,
	}
	agent.Touch(time.Now().UTC())
	err = insertAccount(ctx, s.coll(), func() interface{} {
		agent.GenID()
		return agent
	})
	if err != nil {
		return nil, err
	}
	logger.L().Infow("Agent registered", "agent_id", agent.ID, "email", email)
	return agent, nil
}

// Login checks credentials and the approval status. Credentials are verified
// first so the status of an account is not revealed to someone without its password.
func (s *agentService) Login(ctx context.Context, email, password string) (*models.Agent, error) {
	var agent models.Agent
	findErr := findOne(ctx, s.coll(), bson.M{"email": NormalizeEmail(email)}, &agent)
	if err := checkPassword(findErr, password, agent.PasswordHash); err != nil {
		return nil, err
	}
	if agent.Status != models.AgentStatusApproved {
		return nil, ErrAccountNotApproved
	}
	return &agent, nil
}

// FindByID returns the agent or mongo.ErrNoDocuments.
func (s *agentService) FindByID(ctx context.Context, id utils.SixID) (*models.Agent, error) {
	var agent models.Agent
	if err := findOne(ctx, s.coll(), bson.M{"_id": id}, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// UpdateProfile applies the non-nil fields and returns the updated agent.
func (s *agentService) UpdateProfile(ctx context.Context, id utils.SixID, in AgentProfileUpdate) (*models.Agent, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.AgencyName != nil {
		set["agencyName"] = *in.AgencyName
	}
	if in.Mobile != nil {
		mobile := NormalizeMobile(*in.Mobile)
		if err := ensureUnique(ctx, s.coll(), &id, bson.M{"mobile": mobile}); err != nil {
			return nil, err
		}
		set["mobile"] = mobile
	}
	if in.Address != nil {
		set["address"] = *in.Address
	}

	var agent models.Agent
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		if db.IsDuplicateOnIndex(err, db.IndexMobileUnique) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("error updating agent %s: %w", id, err)
	}
	return &agent, nil
}

// List returns agents, optionally filtered by status, newest first.
func (s *agentService) List(ctx context.Context, status models.AgentStatus) ([]models.Agent, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := s.coll().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing agents: %w", err)
	}
	agents := []models.Agent{}
	if err := cursor.All(ctx, &agents); err != nil {
		return nil, fmt.Errorf("error decoding agents: %w", err)
	}
	return agents, nil
}

// Review approves or rejects an agent and emails them the outcome.
func (s *agentService) Review(ctx context.Context, id utils.SixID, status models.AgentStatus) (*models.Agent, error) {
	if status != models.AgentStatusApproved && status != models.AgentStatusRejected {
		return nil, fmt.Errorf("%w: status must be approved or rejected", ErrValidation)
	}

	now := time.Now().UTC()
	var agent models.Agent
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "reviewedAt": now, "updatedAt": now}},
		opts,
	).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error reviewing agent %s: %w", id, err)
	}

	templateID := models.TemplateAgentApproved
	if status == models.AgentStatusRejected {
		templateID = models.TemplateAgentRejected
	}
	if err := s.notifier.Notify(ctx, agent.Email, templateID, map[string]interface{}{
		"name":    agent.Name,
		"agency":  agent.AgencyName,
		"appName": s.cfg.AppName,
	}); err != nil {
		logger.L().Warnw("Failed to queue agent review email", "agent_id", id, "error", err)
	}
	return &agent, nil
}

// ApprovedIDs lists every approved agent.
func (s *agentService) ApprovedIDs(ctx context.Context) ([]utils.SixID, error) {
	cursor, err := s.coll().Find(ctx,
		bson.M{"status": models.AgentStatusApproved},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("error listing approved agents: %w", err)
	}
	var rows []struct {
		ID utils.SixID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding approved agents: %w", err)
	}
	ids := make([]utils.SixID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// SetImage records the processed profile image key.
func (s *agentService) SetImage(ctx context.Context, id utils.SixID, key string) error {
	res, err := s.coll().UpdateByID(ctx, id, bson.M{"$set": bson.M{"imageKey": key, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error setting image for agent %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
