package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kscout/runboard-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubmissionsCollection is the name of the MongoDB submissions collection
const SubmissionsCollection = "submissions"

// UsersCollection is the name of the MongoDB users collection
const UsersCollection = "users"

// filterBSON builds a MongoDB query document from a SubmissionFilter
func filterBSON(f SubmissionFilter) bson.D {
	query := bson.D{}

	if f.ID != nil {
		query = append(query, bson.E{Key: "_id", Value: *f.ID})
	}

	if f.LeadID != nil {
		query = append(query, bson.E{Key: "leadId", Value: *f.LeadID})
	}

	if f.ManagerID != nil {
		query = append(query, bson.E{Key: "managerId", Value: *f.ManagerID})
	}

	if len(f.Team) > 0 {
		query = append(query, bson.E{Key: "team", Value: f.Team})
	}

	if f.From != nil || f.To != nil {
		window := bson.D{}
		if f.From != nil {
			window = append(window, bson.E{Key: "$gte", Value: *f.From})
		}
		if f.To != nil {
			window = append(window, bson.E{Key: "$lte", Value: *f.To})
		}

		query = append(query, bson.E{Key: "timestamp", Value: window})
	}

	if len(f.TestNameSearch) > 0 {
		query = append(query, bson.E{Key: "testName", Value: bson.D{
			{Key: "$regex", Value: f.searchPattern()},
			{Key: "$options", Value: "i"},
		}})
	}

	return query
}

// MongoSubmissions is a SubmissionStore backed by a MongoDB collection
type MongoSubmissions struct {
	// Coll is the submissions collection
	Coll *mongo.Collection
}

// decodeAll reads every record from cursor and loads it as a Submission
func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]models.Submission, error) {
	defer cursor.Close(ctx)

	subs := []models.Submission{}

	for cursor.Next(ctx) {
		var rec models.SubmissionRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode submission: %s", err.Error())
		}

		sub, err := loadRecord(rec)
		if err != nil {
			return nil, err
		}

		subs = append(subs, *sub)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %s", err.Error())
	}

	return subs, nil
}

// Find implements SubmissionStore
func (s MongoSubmissions) Find(ctx context.Context, filter SubmissionFilter, opts FindOptions) ([]models.Submission, error) {
	direction := 1
	if opts.Sort == SortTimestampDesc {
		direction = -1
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: direction}})
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := s.Coll.Find(ctx, filterBSON(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %s", err.Error())
	}

	return decodeAll(ctx, cursor)
}

// FindOne implements SubmissionStore
func (s MongoSubmissions) FindOne(ctx context.Context, filter SubmissionFilter) (*models.Submission, error) {
	var rec models.SubmissionRecord

	err := s.Coll.FindOne(ctx, filterBSON(filter)).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to find submission: %s", err.Error())
	}

	return loadRecord(rec)
}

// Insert implements SubmissionStore
func (s MongoSubmissions) Insert(ctx context.Context, sub *models.Submission) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}

	if _, err := s.Coll.InsertOne(ctx, sub.Record()); err != nil {
		return fmt.Errorf("failed to insert submission: %s", err.Error())
	}

	return nil
}

// UpdateOne implements SubmissionStore
func (s MongoSubmissions) UpdateOne(ctx context.Context, id primitive.ObjectID, patch SubmissionPatch) (*models.Submission, error) {
	set := bson.D{{Key: "updatedAt", Value: patch.UpdatedAt}}

	if patch.Team != nil {
		set = append(set, bson.E{Key: "team", Value: *patch.Team})
	}
	if patch.TestName != nil {
		set = append(set, bson.E{Key: "testName", Value: *patch.TestName})
	}
	if patch.Sections != nil {
		set = append(set, bson.E{Key: "sections", Value: patch.Sections})
	}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *patch.Status})
	}
	if patch.Timestamp != nil {
		set = append(set, bson.E{Key: "timestamp", Value: *patch.Timestamp})
	}

	var rec models.SubmissionRecord
	err := s.Coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to update submission: %s", err.Error())
	}

	return loadRecord(rec)
}

// DeleteOne implements SubmissionStore
func (s MongoSubmissions) DeleteOne(ctx context.Context, filter SubmissionFilter) (bool, error) {
	res, err := s.Coll.DeleteOne(ctx, filterBSON(filter))
	if err != nil {
		return false, fmt.Errorf("failed to delete submission: %s", err.Error())
	}

	return res.DeletedCount > 0, nil
}

// Count implements SubmissionStore
func (s MongoSubmissions) Count(ctx context.Context, filter SubmissionFilter) (int64, error) {
	n, err := s.Coll.CountDocuments(ctx, filterBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %s", err.Error())
	}

	return n, nil
}

// Distinct implements SubmissionStore
func (s MongoSubmissions) Distinct(ctx context.Context, field string, filter SubmissionFilter) ([]string, error) {
	raw, err := s.Coll.Distinct(ctx, field, filterBSON(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to get distinct %s values: %s", field, err.Error())
	}

	return stringValues(raw), nil
}

// All implements SubmissionStore
func (s MongoSubmissions) All(ctx context.Context, fn func(models.Submission) error) error {
	cursor, err := s.Coll.Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query submissions: %s", err.Error())
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var rec models.SubmissionRecord
		if err := cursor.Decode(&rec); err != nil {
			return fmt.Errorf("failed to decode submission: %s", err.Error())
		}

		sub, err := loadRecord(rec)
		if err != nil {
			return err
		}

		if err := fn(*sub); err != nil {
			return err
		}
	}

	return cursor.Err()
}

// EnsureIndexes creates the indexes report queries rely on
func (s MongoSubmissions) EnsureIndexes(ctx context.Context) error {
	_, err := s.Coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "leadId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "managerId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "team", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}, {Key: "managerId", Value: 1}, {Key: "team", Value: 1}},
			Options: options.Index().SetName("manager_team_date_index"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create submission indexes: %s", err.Error())
	}

	return nil
}

// userDocument is the stored form of a models.User
type userDocument struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Role      string              `bson:"role"`
	Name      string              `bson:"name"`
	Email     string              `bson:"email"`
	Team      string              `bson:"team,omitempty"`
	ManagerID *primitive.ObjectID `bson:"managerId,omitempty"`
	CreatedAt time.Time           `bson:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt"`
}

// newUserDocument converts a user into its stored form
func newUserDocument(u models.User) userDocument {
	doc := userDocument{
		ID:        u.ID,
		Role:      string(u.Role()),
		Name:      u.Name,
		Email:     normalizeEmail(u.Email),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}

	if c, ok := u.Membership.(models.Contributor); ok {
		managerID := c.ManagerID
		doc.Team = c.Team
		doc.ManagerID = &managerID
	}

	return doc
}

// User converts the stored form into a models.User. Contributors must have a team
// and a manager.
func (d userDocument) User() (*models.User, error) {
	role, err := models.ParseRole(d.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %s", d.ID.Hex(), err.Error())
	}

	u := &models.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	switch role {
	case models.RoleContributor:
		if len(d.Team) == 0 || d.ManagerID == nil {
			return nil, fmt.Errorf("contributor %s must have a team and a manager",
				d.ID.Hex())
		}

		u.Membership = models.Contributor{
			Team:      d.Team,
			ManagerID: *d.ManagerID,
		}
	case models.RoleCoordinator:
		u.Membership = models.Coordinator{}
	}

	return u, nil
}

// MongoUsers is a UserDirectory backed by a MongoDB collection
type MongoUsers struct {
	// Coll is the users collection
	Coll *mongo.Collection
}

// findOne returns the single user matching query, nil if none
func (s MongoUsers) findOne(ctx context.Context, query bson.D) (*models.User, error) {
	var doc userDocument

	err := s.Coll.FindOne(ctx, query).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to find user: %s", err.Error())
	}

	return doc.User()
}

// FindUserByID implements UserDirectory
func (s MongoUsers) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// FindUserByEmail implements UserDirectory
func (s MongoUsers) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: normalizeEmail(email)}})
}

// contributorsQuery selects the contributors of a coordinator
func contributorsQuery(coordinatorID primitive.ObjectID) bson.D {
	return bson.D{
		{Key: "managerId", Value: coordinatorID},
		{Key: "role", Value: string(models.RoleContributor)},
	}
}

// FindContributors implements UserDirectory
func (s MongoUsers) FindContributors(ctx context.Context, coordinatorID primitive.ObjectID) ([]models.User, error) {
	cursor, err := s.Coll.Find(ctx, contributorsQuery(coordinatorID),
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query contributors: %s", err.Error())
	}
	defer cursor.Close(ctx)

	leads := []models.User{}

	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %s", err.Error())
		}

		u, err := doc.User()
		if err != nil {
			return nil, err
		}

		leads = append(leads, *u)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributors: %s", err.Error())
	}

	return leads, nil
}

// DistinctTeams implements UserDirectory
func (s MongoUsers) DistinctTeams(ctx context.Context, coordinatorID primitive.ObjectID) ([]string, error) {
	raw, err := s.Coll.Distinct(ctx, "team", contributorsQuery(coordinatorID))
	if err != nil {
		return nil, fmt.Errorf("failed to get distinct teams: %s", err.Error())
	}

	teams := []string{}
	for _, team := range stringValues(raw) {
		if len(team) > 0 {
			teams = append(teams, team)
		}
	}

	return teams, nil
}

// InsertUser implements UserDirectory
func (s MongoUsers) InsertUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = normalizeEmail(user.Email)

	_, err := s.Coll.InsertOne(ctx, newUserDocument(*user))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	} else if err != nil {
		return fmt.Errorf("failed to insert user: %s", err.Error())
	}

	return nil
}

// UpdateTeam implements UserDirectory
func (s MongoUsers) UpdateTeam(ctx context.Context, id primitive.ObjectID, team string, now time.Time) error {
	res, err := s.Coll.UpdateOne(ctx, bson.D{
		{Key: "_id", Value: id},
		{Key: "role", Value: string(models.RoleContributor)},
	}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "team", Value: team},
		{Key: "updatedAt", Value: now},
	}}})
	if err != nil {
		return fmt.Errorf("failed to update team: %s", err.Error())
	}

	if res.MatchedCount > 0 {
		return nil
	}

	u, err := s.FindUserByID(ctx, id)
	if err != nil {
		return err
	} else if u == nil {
		return ErrUserNotFound
	}

	return ErrNotContributor
}

// EnsureIndexes creates the user indexes, email is unique
func (s MongoUsers) EnsureIndexes(ctx context.Context) error {
	_, err := s.Coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "managerId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %s", err.Error())
	}

	return nil
}

// stringValues keeps the string values of a Distinct result, sorted
func stringValues(raw []interface{}) []string {
	values := []string{}
	for _, v := range raw {
		if str, ok := v.(string); ok {
			values = append(values, str)
		}
	}

	sort.Strings(values)

	return values
}
