package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/haymanh/success/internal/app/system/normalize"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Status values.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// MinPasswordLen is the shortest password Create accepts.
const MinPasswordLen = 6

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrBadCredentials is returned by Authenticate for an unknown email or wrong password.
	ErrBadCredentials = errors.New("invalid email or password")
	// ErrDisabled is returned by Authenticate for a disabled account.
	ErrDisabled = errors.New("account is disabled")

	errBadRole      = errors.New(`role must be "user"|"admin"`)
	errShortPass    = errors.New("password must be at least 6 characters")
	errNameRequired = errors.New("name is required")
)

type Store struct {
	c *mongo.Collection
	// cost is the bcrypt cost; tests lower it.
	cost int
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), cost: bcrypt.DefaultCost}
}

// WithCost returns a copy of the store hashing with the given bcrypt cost.
func (s *Store) WithCost(cost int) *Store {
	cp := *s
	cp.cost = cost
	return &cp
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create hashes password, normalizes fields and inserts the user.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = StatusActive
	}

	if u.Name == "" {
		return models.User{}, errNameRequired
	}
	if u.Role != models.RoleUser && u.Role != models.RoleAdmin {
		return models.User{}, errBadRole
	}
	if len(password) < MinPasswordLen {
		return models.User{}, errShortPass
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = string(hash)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate checks email and password. The returned user is set even
// for ErrBadCredentials when the email exists, so callers can audit the
// attempt against the account.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return u, ErrBadCredentials
	}
	if normalize.Status(u.Status) == StatusDisabled {
		return u, ErrDisabled
	}
	return u, nil
}

// SetLastLogin stamps the last successful login time.
func (s *Store) SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": at}})
	return err
}

// SetRole changes a user's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureAdmin makes sure an active admin with this email exists. An
// existing account is promoted and re-enabled; its password is left alone.
// It reports whether a new account was created.
func (s *Store) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	existing, err := s.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin && existing.Status == StatusActive {
			return false, nil
		}
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{"$set": bson.M{
			"role":       models.RoleAdmin,
			"status":     StatusActive,
			"updated_at": time.Now().UTC(),
		}})
		return false, err
	case errors.Is(err, ErrNotFound):
		_, err := s.Create(ctx, models.User{Name: name, Email: email, Role: models.RoleAdmin}, password)
		if err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}
