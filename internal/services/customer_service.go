package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// CustomerSignup is the input for customer registration.
type CustomerSignup struct {
	Name     string
	Email    string
	Mobile   string
	Password string
	Address  models.Address
}

// CustomerProfileUpdate holds the editable customer fields. Nil fields are left unchanged.
type CustomerProfileUpdate struct {
	Name    *string
	Mobile  *string
	Address *models.Address
}

// ICustomerService defines customer account operations.
type ICustomerService interface {
	Signup(ctx context.Context, in CustomerSignup) (*models.Customer, error)
	Login(ctx context.Context, identifier, password string) (*models.Customer, error)
	FindByID(ctx context.Context, id utils.SixID) (*models.Customer, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.Customer, error)
	UpdateProfile(ctx context.Context, id utils.SixID, in CustomerProfileUpdate) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
}

type customerService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(db *mongo.Database, cfg *config.Config) ICustomerService {
	return &customerService{db: db, cfg: cfg}
}

func (s *customerService) coll() *mongo.Collection {
	return s.db.Collection(db.CustomersCollection)
}

// identifierFilter matches an email when the identifier contains '@' and a mobile otherwise.
func identifierFilter(identifier string) bson.M {
	if strings.Contains(identifier, "@") {
		return bson.M{"email": NormalizeEmail(identifier)}
	}
	return bson.M{"mobile": NormalizeMobile(identifier)}
}

// Signup registers a customer.
func (s *customerService) Signup(ctx context.Context, in CustomerSignup) (*models.Customer, error) {
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

	customer := &models.Customer{
		Name:         in.Name,
		Email:        email,
		Mobile:       mobile,
		PasswordHash: hash,
		Address:      in.Address,
	}
	customer.Touch(time.Now().UTC())
	err = insertAccount(ctx, s.coll(), func() interface{} {
		customer.GenID()
		return customer
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// Login accepts an email or a mobile number as the identifier.
func (s *customerService) Login(ctx context.Context, identifier, password string) (*models.Customer, error) {
	var customer models.Customer
	findErr := findOne(ctx, s.coll(), identifierFilter(identifier), &customer)
	if err := checkPassword(findErr, password, customer.PasswordHash); err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByID returns the customer or mongo.ErrNoDocuments.
func (s *customerService) FindByID(ctx context.Context, id utils.SixID) (*models.Customer, error) {
	var customer models.Customer
	if err := findOne(ctx, s.coll(), bson.M{"_id": id}, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByIdentifier looks a customer up by ID, email or mobile.
func (s *customerService) FindByIdentifier(ctx context.Context, identifier string) (*models.Customer, error) {
	identifier = strings.TrimSpace(identifier)
	if id, err := utils.ParseSixID(identifier); err == nil {
		c, err := s.FindByID(ctx, id)
		if err == nil || !errors.Is(err, mongo.ErrNoDocuments) {
			return c, err
		}
	}
	var customer models.Customer
	if err := findOne(ctx, s.coll(), identifierFilter(identifier), &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateProfile applies the non-nil fields and returns the updated customer.
func (s *customerService) UpdateProfile(ctx context.Context, id utils.SixID, in CustomerProfileUpdate) (*models.Customer, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if in.Name != nil {
		set["name"] = *in.Name
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

	var customer models.Customer
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		if db.IsDuplicateOnIndex(err, db.IndexMobileUnique) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("error updating customer %s: %w", id, err)
	}
	return &customer, nil
}

// List returns every customer sorted by name.
func (s *customerService) List(ctx context.Context) ([]models.Customer, error) {
	cursor, err := s.coll().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing customers: %w", err)
	}
	customers := []models.Customer{}
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("error decoding customers: %w", err)
	}
	return customers, nil
}
