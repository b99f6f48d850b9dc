package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"matka/internal/models"
	"matka/internal/repository"
)

type CustomerService struct {
	Repo   repository.Repository
	Flags  *SystemSettingsService
	Logger *zap.Logger
	Now    func() time.Time
}

type SignupInput struct {
	Name     string
	Mobile   string
	Password string
}

// Signup registers a customer and opens their balance at zero.
func (s *CustomerService) Signup(ctx context.Context, in SignupInput) (*models.Customer, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("customer service not configured")
	}
	if !s.Flags.IsEnabled(ctx, FeatureSignup, true) {
		return nil, fmt.Errorf("%w: %s", ErrFeatureDisabled, FeatureSignup)
	}
	name := strings.TrimSpace(in.Name)
	mobile := strings.TrimSpace(in.Mobile)
	if name == "" || mobile == "" {
		return nil, fmt.Errorf("%w: name and mobile are required", ErrInvalidInput)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	existing, err := s.Repo.GetCustomerByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: mobile already registered", ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	c := &models.Customer{
		ID:           uuid.NewString(),
		Name:         name,
		Mobile:       mobile,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.Repo.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		return s.Repo.IncrementBalancesTx(ctx, tx, map[string]decimal.Decimal{c.ID: decimal.Zero}, s.now())
	})
	if err != nil {
		// The first settlement creates the row anyway.
		s.logWarn("open balance failed", err, zap.String("customer_id", c.ID))
	}
	return c, nil
}

// Authenticate checks a mobile/password pair.
func (s *CustomerService) Authenticate(ctx context.Context, mobile, password string) (*models.Customer, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("customer service not configured")
	}
	c, err := s.Repo.GetCustomerByMobile(ctx, strings.TrimSpace(mobile))
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsActive {
		return nil, ErrCustomerNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("customer service not configured")
	}
	c, err := s.Repo.GetCustomerByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// Balance returns the customer's balance, zero when no row exists yet.
func (s *CustomerService) Balance(ctx context.Context, id string) (decimal.Decimal, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return decimal.Zero, err
	}
	b, err := s.Repo.GetBalanceByCustomerID(ctx, strings.TrimSpace(id))
	if err != nil {
		return decimal.Zero, err
	}
	if b == nil {
		return decimal.Zero, nil
	}
	return b.BalanceAmount, nil
}

func (s *CustomerService) History(ctx context.Context, params repository.ListBetHistoryParams) ([]repository.BetHistoryRow, error) {
	if _, err := s.Get(ctx, params.CustomerID); err != nil {
		return nil, err
	}
	return s.Repo.ListBetHistory(ctx, params)
}

func (s *CustomerService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CustomerService) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
