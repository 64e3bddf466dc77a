package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmailTaken      = errors.New("email is already registered")
	ErrUsernameTaken   = errors.New("username is already taken")
)

// Roles a User may hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account able to log in. PasswordHash is a bcrypt hash and never
// serialized to clients.
type User struct {
	ID           string `json:"_id" bson:"_id"`
	Username     string `json:"username" bson:"username"`
	Email        string `json:"email" bson:"email"`
	Role         string `json:"role" bson:"role"`
	PasswordHash string `json:"-" bson:"password"`
}

// CheckPassword reports ErrInvalidPassword when password does not match.
func (u *User) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// UserStore persists accounts. Emails compare case-insensitively; usernames
// compare exactly.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// Create stores u, assigning its ID. PasswordHash must already be set.
	// Returns ErrEmailTaken or ErrUsernameTaken on conflicts.
	Create(ctx context.Context, u *User) error
	SetPassword(ctx context.Context, id, hash string) error
}

// MemoryUserStore is a UserStore held in memory.
type MemoryUserStore struct {
	mu        sync.RWMutex
	users     map[string]User
	emails    map[string]string
	usernames map[string]string
}

// NewMemoryUserStore returns an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:     make(map[string]User),
		emails:    make(map[string]string),
		usernames: make(map[string]string),
	}
}

// Add stores u with the hash of password. An empty role defaults to RoleUser.
func (s *MemoryUserStore) Add(u User, password string) (User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = hash
	if err := s.Create(context.Background(), &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *MemoryUserStore) Create(_ context.Context, u *User) error {
	email := strings.ToLower(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[email]; ok {
		return ErrEmailTaken
	}
	if _, ok := s.usernames[u.Username]; ok && u.Username != "" {
		return ErrUsernameTaken
	}

	if u.ID == "" {
		u.ID = bson.NewObjectID().Hex()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Email = email

	s.users[u.ID] = *u
	s.emails[email] = u.ID
	if u.Username != "" {
		s.usernames[u.Username] = u.ID
	}
	return nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) SetPassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

// MongoUserStore keeps users in the "users" collection with ObjectID keys.
type MongoUserStore struct {
	coll *mongo.Collection
}

// NewMongoUserStore returns a store on the users collection of db.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection("users")}
}

// EnsureIndexes creates the unique email and username indexes.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}
	return nil
}

type userDoc struct {
	ID           bson.ObjectID `bson:"_id"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	Role         string        `bson:"role"`
	PasswordHash string        `bson:"password"`
}

func (d userDoc) user() *User {
	role := d.Role
	if role == "" {
		role = RoleUser
	}
	return &User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		Role:         role,
		PasswordHash: d.PasswordHash,
	}
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.D) (*User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.user(), nil
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}})
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *MongoUserStore) Create(ctx context.Context, u *User) error {
	email := strings.ToLower(u.Email)

	existing, err := s.findOne(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "email", Value: email}},
		bson.D{{Key: "username", Value: u.Username}},
	}}})
	switch {
	case err == nil && existing.Email == email:
		return ErrEmailTaken
	case err == nil:
		return ErrUsernameTaken
	case !errors.Is(err, ErrUserNotFound):
		return err
	}

	doc := userDoc{
		ID:           bson.NewObjectID(),
		Username:     u.Username,
		Email:        email,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
	}
	if doc.Role == "" {
		doc.Role = RoleUser
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race with a concurrent registration.
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	*u = *doc.user()
	return nil
}

func (s *MongoUserStore) SetPassword(ctx context.Context, id, hash string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}
	res, err := s.coll.UpdateByID(ctx, oid, bson.D{{Key: "$set", Value: bson.D{{Key: "password", Value: hash}}}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
