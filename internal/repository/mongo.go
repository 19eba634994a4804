package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository stores users in the "users" collection.
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository returns a UserRepository backed by MongoDB.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection(database.UsersCollection)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", database.UsersCollection)()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := mongoNow()
	user.CreatedAt, user.UpdatedAt = now, now

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Username exists")
		}
		return models.NewInternalError(fmt.Errorf("mongo insert: %w", err))
	}
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer observability.TrackQuery("select", database.UsersCollection)()

	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery("select", database.UsersCollection)()

	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewUserNotFoundError()
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// MongoPostRepository stores posts in the "posts" collection and resolves
// authors with a second batched query.
type MongoPostRepository struct {
	col   *mongo.Collection
	users *mongo.Collection
}

// NewMongoPostRepository returns a PostRepository backed by MongoDB.
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{
		col:   db.Collection(database.PostsCollection),
		users: db.Collection(database.UsersCollection),
	}
}

func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", database.PostsCollection)()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := mongoNow()
	post.CreatedAt, post.UpdatedAt = now, now

	if _, err := r.col.InsertOne(ctx, post); err != nil {
		return models.NewInternalError(fmt.Errorf("mongo insert: %w", err))
	}
	return nil
}

func (r *MongoPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	defer observability.TrackQuery("select", database.PostsCollection)()

	var post models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}

	authors, err := lookupUsernames(ctx, r.users, []string{post.AuthorID})
	if err != nil {
		return nil, err
	}
	post.Author = authors[post.AuthorID]
	return &post, nil
}

func (r *MongoPostRepository) List(ctx context.Context, limit int) ([]*models.Post, error) {
	defer observability.TrackQuery("select", database.PostsCollection)()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer cur.Close(ctx)

	posts := []*models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, models.NewInternalError(err)
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	authors, err := lookupUsernames(ctx, r.users, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Author = authors[p.AuthorID]
	}
	return posts, nil
}

func (r *MongoPostRepository) UpdateOwned(ctx context.Context, id, authorID string, changes models.PostChanges) (bool, error) {
	defer observability.TrackQuery("update", database.PostsCollection)()

	set := bson.M{"updatedAt": mongoNow()}
	for col, v := range changes.Columns() {
		set[col] = v
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "authorId": authorID}, bson.M{"$set": set})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return res.MatchedCount > 0, nil
}

// MongoCommentRepository stores comments in the "comments" collection.
type MongoCommentRepository struct {
	col   *mongo.Collection
	users *mongo.Collection
	posts *mongo.Collection
}

// NewMongoCommentRepository returns a CommentRepository backed by MongoDB.
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{
		col:   db.Collection(database.CommentsCollection),
		users: db.Collection(database.UsersCollection),
		posts: db.Collection(database.PostsCollection),
	}
}

func (r *MongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("insert", database.CommentsCollection)()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = mongoNow()

	if _, err := r.col.InsertOne(ctx, comment); err != nil {
		return models.NewInternalError(fmt.Errorf("mongo insert: %w", err))
	}
	return nil
}

func (r *MongoCommentRepository) ListRecent(ctx context.Context, limit int) ([]*models.Comment, error) {
	defer observability.TrackQuery("select", database.CommentsCollection)()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer cur.Close(ctx)

	comments := []*models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, models.NewInternalError(err)
	}

	authorIDs := make([]string, 0, len(comments))
	postIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
		postIDs = append(postIDs, c.PostID)
	}
	authors, err := lookupUsernames(ctx, r.users, authorIDs)
	if err != nil {
		return nil, err
	}
	titles, err := lookupTitles(ctx, r.posts, postIDs)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		c.Author = authors[c.AuthorID]
		c.Post = titles[c.PostID]
	}
	return comments, nil
}

// lookupUsernames resolves {id, username} for the given ids in one query.
// Ids with no matching user are absent from the result.
func lookupUsernames(ctx context.Context, col *mongo.Collection, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "username": 1})
	cur, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": dedupe(ids)}}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer cur.Close(ctx)

	var users []*models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// lookupTitles resolves {id, title} for the given post ids in one query.
func lookupTitles(ctx context.Context, col *mongo.Collection, ids []string) (map[string]*models.Post, error) {
	out := make(map[string]*models.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "title": 1})
	cur, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": dedupe(ids)}}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer cur.Close(ctx)

	var posts []*models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// mongoNow is the current UTC time at the millisecond precision BSON dates keep,
// so a freshly created document matches what later reads return.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
