package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// AdminSignup is the input for creating an administrator.
type AdminSignup struct {
	Name      string
	Email     string
	Password  string
	SignupKey string
}

// IAdminService defines administrator account operations.
type IAdminService interface {
	Signup(ctx context.Context, in AdminSignup) (*models.Admin, error)
	Login(ctx context.Context, email, password string) (*models.Admin, error)
	FindByID(ctx context.Context, id utils.SixID) (*models.Admin, error)
}

type adminService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewAdminService creates a new AdminService.
func NewAdminService(db *mongo.Database, cfg *config.Config) IAdminService {
	return &adminService{db: db, cfg: cfg}
}

// Signup creates an admin. It requires the configured signup key; with no key
// configured admin signup is disabled.
func (s *adminService) Signup(ctx context.Context, in AdminSignup) (*models.Admin, error) {
	if s.cfg.AdminSignupKey == "" || subtle.ConstantTimeCompare([]byte(in.SignupKey), []byte(s.cfg.AdminSignupKey)) != 1 {
		return nil, ErrForbidden
	}
	if err := validatePassword(in.Password, s.cfg.PasswordMinLength); err != nil {
		return nil, err
	}

	coll := s.db.Collection(db.AdminsCollection)
	email := NormalizeEmail(in.Email)
	if err := ensureUnique(ctx, coll, nil, bson.M{"email": email}); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{Name: in.Name, Email: email, PasswordHash: hash}
	admin.Touch(time.Now().UTC())
	err = insertAccount(ctx, coll, func() interface{} {
		admin.GenID()
		return admin
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// Login checks an admin's email and password.
func (s *adminService) Login(ctx context.Context, email, password string) (*models.Admin, error) {
	var admin models.Admin
	findErr := findOne(ctx, s.db.Collection(db.AdminsCollection), bson.M{"email": NormalizeEmail(email)}, &admin)
	if err := checkPassword(findErr, password, admin.PasswordHash); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByID returns the admin or mongo.ErrNoDocuments.
func (s *adminService) FindByID(ctx context.Context, id utils.SixID) (*models.Admin, error) {
	var admin models.Admin
	if err := findOne(ctx, s.db.Collection(db.AdminsCollection), bson.M{"_id": id}, &admin); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("error finding admin %s: %w", id, err)
	}
	return &admin, nil
}
