package service

import (
	"fmt"
	"log"
	"time"

	"ColdVault/config"
	"ColdVault/internal/apperr"
	"ColdVault/model"
	"ColdVault/utils"

	"golang.org/x/net/context"
)

// UserStore is the persistence contract for accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByName(ctx context.Context, name string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
}

const activateTokenTTL = 24 * time.Hour

// Users handles registration, activation and login.
type Users struct {
	store UserStore
	cache utils.Cache
}

func NewUsers(store UserStore, cache utils.Cache) *Users {
	return &Users{store: store, cache: cache}
}

// Register creates an inactive account and mails an activation link.
func (s *Users) Register(ctx context.Context, username, password, email string) (*model.User, error) {
	if username == "" || password == "" || email == "" {
		return nil, apperr.New(apperr.InvalidArgument, "username, password and email are required")
	}
	if _, err := s.store.GetByName(ctx, username); err == nil {
		return nil, apperr.New(apperr.InvalidArgument, "username already taken")
	} else if !apperr.IsKind(err, apperr.NotFound) {
		return nil, err
	}
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.InvalidArgument, "email already registered")
	} else if !apperr.IsKind(err, apperr.NotFound) {
		return nil, err
	}

	u := &model.User{
		UserName:   username,
		Password:   utils.GetPwd(password),
		Email:      email,
		TotalSpace: uint64(config.AppConfig.MaxFileSize),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, "create user", err)
	}

	token := utils.GetToken()
	if err := s.cache.Set(ctx, activateKey(token), u.ID, activateTokenTTL); err != nil {
		return nil, apperr.Wrap(apperr.BackendFailure, "store activation token", err)
	}
	if err := utils.SendActivateMail(email, token); err != nil {
		// the account exists either way, the token can be re-sent
		log.Printf("activation mail to %s failed: %v", email, err)
	}
	return u, nil
}

// Activate flips an account to active. The token is single-use.
func (s *Users) Activate(ctx context.Context, token string) error {
	var userID uint64
	if err := s.cache.Get(ctx, activateKey(token), &userID); err != nil {
		return apperr.New(apperr.NotFound, "activation token invalid or expired")
	}
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	u.IsActive = true
	if err := s.store.Update(ctx, u); err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, "activate user", err)
	}
	if err := s.cache.Delete(ctx, activateKey(token)); err != nil {
		log.Printf("activation token cleanup: %v", err)
	}
	return nil
}

// Login verifies credentials and mints a JWT.
func (s *Users) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	u, err := s.store.GetByName(ctx, username)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return "", nil, apperr.New(apperr.InvalidArgument, "invalid username or password")
		}
		return "", nil, err
	}
	if !utils.CheckPwd(password, u.Password) {
		return "", nil, apperr.New(apperr.InvalidArgument, "invalid username or password")
	}
	if !u.IsActive {
		return "", nil, apperr.New(apperr.InvalidArgument, "account not activated")
	}
	token, err := utils.GenerateToken(u.ID, u.UserName)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.BackendFailure, "sign token", err)
	}
	return token, u, nil
}

// Get returns one account by id.
func (s *Users) Get(ctx context.Context, id uint64) (*model.User, error) {
	return s.store.GetByID(ctx, id)
}

func activateKey(token string) string {
	return fmt.Sprintf("activate:%s", token)
}
