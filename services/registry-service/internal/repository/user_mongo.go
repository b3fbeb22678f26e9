package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/shared/security"
)

const (
	userCollection    = "users"
	counterCollection = "counters"

	idxUsername = "uniq_username"
	idxEmail    = "uniq_email"
	idxPhone    = "uniq_phone"
)

// caseInsensitive is the collation applied to the username and email indexes
// and to every lookup against them. Strength 2 compares base characters and
// case-insensitively.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type userMongoBackend struct {
	db *mongo.Database
}

// NewUserMongoBackend creates the direct (in-process database) backend. It
// ensures the uniqueness indexes exist; index names are load-bearing because
// duplicate-key errors are classified by the index they violated.
func NewUserMongoBackend(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserBackend {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(idxUsername).
				SetCollation(caseInsensitive),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(idxEmail).
				SetCollation(caseInsensitive),
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(idxPhone),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoBackend{db: db}
}

func (r *userMongoBackend) CreateUser(ctx context.Context, user *model.User, password string) (*model.User, error) {
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate user id: %w", err)
	}

	now := time.Now()
	user.ID = id
	user.PasswordHash = passwordHash
	user.Active = true
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.db.Collection(userCollection).InsertOne(ctx, user); err != nil {
		if conflict := classifyDuplicateKey(err); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}

	return user, nil
}

func (r *userMongoBackend) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	user, err := r.findByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if ok, err := security.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if user.Pending() {
		return nil, ErrUserNotApproved
	}

	return user, nil
}

func (r *userMongoBackend) VerifySecurityAnswer(ctx context.Context, login, answer string) (*model.User, error) {
	user, err := r.findByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if ok, err := security.VerifyAnswer(answer, user.SecurityAnswerHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (r *userMongoBackend) GetUser(ctx context.Context, id int64, includeInactive bool) (*model.User, error) {
	filter := bson.M{"_id": id}
	if !includeInactive {
		filter["active"] = true
	}

	return r.findOne(ctx, filter, nil)
}

func (r *userMongoBackend) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username}, caseInsensitive)
}

func (r *userMongoBackend) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, caseInsensitive)
}

func (r *userMongoBackend) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone}, nil)
}

func (r *userMongoBackend) UpdateUser(ctx context.Context, user *model.User) (*model.User, error) {
	// Uniqueness is pre-checked so that conflicts are classified even when
	// the violating value belongs to an inactive account.
	checks := []struct {
		field    UniqueField
		value    string
		conflict error
	}{
		{FieldUsername, user.Username, ErrUsernameTaken},
		{FieldEmail, user.Email, ErrEmailTaken},
		{FieldPhone, user.Phone, ErrPhoneTaken},
	}
	for _, c := range checks {
		unique, err := r.IsUnique(ctx, c.field, c.value, user.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, c.conflict
		}
	}

	update := bson.M{
		"username":          user.Username,
		"email":             user.Email,
		"phone":             user.Phone,
		"first_name":        user.FirstName,
		"last_name":         user.LastName,
		"date_of_birth":     user.DateOfBirth,
		"security_question": user.SecurityQuestion,
		"admin":             user.Admin,
		"approved":          user.Approved,
		"active":            user.Active,
		"updated_at":        time.Now(),
	}

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		if conflict := classifyDuplicateKey(result.Err()); conflict != nil {
			return nil, conflict
		}
		return nil, result.Err()
	}

	var updated model.User
	if err := result.Decode(&updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *userMongoBackend) UpdatePassword(ctx context.Context, id int64, newPassword string) error {
	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return r.setFields(ctx, id, bson.M{"password_hash": passwordHash})
}

// DeleteUser deactivates the account. Records are never removed so that
// uniqueness holds across the full account history.
func (r *userMongoBackend) DeleteUser(ctx context.Context, id int64) error {
	return r.setFields(ctx, id, bson.M{"active": false})
}

func (r *userMongoBackend) ApproveUser(ctx context.Context, id int64) error {
	return r.setFields(ctx, id, bson.M{"approved": true})
}

func (r *userMongoBackend) ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error) {
	filter := bson.M{}
	if params.Active != nil {
		filter["active"] = *params.Active
	}
	if params.Search != "" {
		pattern := regexp.QuoteMeta(params.Search)
		match := bson.M{"$regex": pattern, "$options": "i"}
		filter["$or"] = []bson.M{
			{"username": match},
			{"email": match},
			{"first_name": match},
			{"last_name": match},
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if params.Limit > 0 {
		findOptions.SetLimit(params.Limit)
	}
	if params.Offset > 0 {
		findOptions.SetSkip(params.Offset)
	}

	return r.find(ctx, filter, findOptions)
}

func (r *userMongoBackend) ListPendingUsers(ctx context.Context) ([]*model.User, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, bson.M{"approved": false, "active": true}, findOptions)
}

// IsUnique reports whether no other user holds the given value. A zero
// excludeID checks against every record (registration mode); a non-zero id
// ignores that user's own record (edit mode).
func (r *userMongoBackend) IsUnique(ctx context.Context, field UniqueField, value string, excludeID int64) (bool, error) {
	filter := bson.M{string(field): value}
	if excludeID != 0 {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	countOptions := options.Count()
	if field == FieldUsername || field == FieldEmail {
		countOptions.SetCollation(caseInsensitive)
	}

	count, err := r.db.Collection(userCollection).CountDocuments(ctx, filter, countOptions)
	if err != nil {
		return false, err
	}

	return count == 0, nil
}

func (r *userMongoBackend) DashboardStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := map[*int64]bson.M{
		&stats.Total:    {},
		&stats.Active:   {"active": true},
		&stats.Pending:  {"approved": false, "active": true},
		&stats.Admins:   {"admin": true, "active": true},
		&stats.Inactive: {"active": false},
	}

	for dst, filter := range counts {
		n, err := r.db.Collection(userCollection).CountDocuments(ctx, filter)
		if err != nil {
			return nil, err
		}
		*dst = n
	}

	return stats, nil
}

// --- helpers ---

func (r *userMongoBackend) findByLogin(ctx context.Context, login string) (*model.User, error) {
	field := "username"
	if strings.Contains(login, "@") {
		field = "email"
	}

	user, err := r.findOne(ctx, bson.M{field: login, "active": true}, caseInsensitive)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userMongoBackend) findOne(
	ctx context.Context,
	filter bson.M,
	collation *options.Collation,
) (*model.User, error) {
	findOptions := options.FindOne()
	if collation != nil {
		findOptions.SetCollation(collation)
	}

	result := r.db.Collection(userCollection).FindOne(ctx, filter, findOptions)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoBackend) find(ctx context.Context, filter bson.M, findOptions *options.FindOptionsBuilder) ([]*model.User, error) {
	cursor, err := r.db.Collection(userCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*model.User
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userMongoBackend) setFields(ctx context.Context, id int64, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

// nextID allocates the next numeric user id from the counters collection.
func (r *userMongoBackend) nextID(ctx context.Context) (int64, error) {
	result := r.db.Collection(counterCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": userCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return 0, result.Err()
	}

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := result.Decode(&counter); err != nil {
		return 0, err
	}

	return counter.Seq, nil
}

// classifyDuplicateKey maps a duplicate-key write error onto the typed
// conflict for the violated index, or nil when err is not a duplicate key.
func classifyDuplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			switch {
			case strings.Contains(we.Message, idxUsername):
				return ErrUsernameTaken
			case strings.Contains(we.Message, idxEmail):
				return ErrEmailTaken
			case strings.Contains(we.Message, idxPhone):
				return ErrPhoneTaken
			}
		}
	}

	return fmt.Errorf("duplicate key: %w", err)
}
