package services

import (
	"context"
	"strings"
	"time"

	"go-social/models"
	"go-social/utils/errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PostService stores posts. Posts also serve as the events users join.
type PostService struct {
	collection *mongo.Collection
	log        logrus.FieldLogger
}

func NewPostService(db *mongo.Database, logger logrus.FieldLogger) *PostService {
	return &PostService{collection: db.Collection("posts"), log: logger}
}

func (s *PostService) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, s.collection, index(bson.D{{Key: "author", Value: 1}}))
}

func (s *PostService) Create(ctx context.Context, author primitive.ObjectID, content string, options *models.PostOptions) (models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return models.Post{}, errors.NotAllowed("Post content must be non-empty!")
	}
	post := models.Post{
		ID:         primitive.NewObjectID(),
		Author:     author,
		Content:    content,
		Options:    options,
		Timestamps: models.NewTimestamps(),
	}
	if _, err := s.collection.InsertOne(ctx, post); err != nil {
		return models.Post{}, errors.DB(err, "failed to create post")
	}
	s.log.WithFields(logrus.Fields{"post_id": post.ID.Hex(), "author": author.Hex()}).Debug("Post created")
	return post, nil
}

// GetPosts returns every post, newest first.
func (s *PostService) GetPosts(ctx context.Context) ([]models.Post, error) {
	return s.readMany(ctx, bson.M{})
}

func (s *PostService) GetByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.Post, error) {
	return s.readMany(ctx, bson.M{"author": author})
}

func (s *PostService) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	return s.readMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *PostService) GetByID(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	var post models.Post
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return models.Post{}, errors.NotFound("Post %s does not exist!", id.Hex())
	}
	if err != nil {
		return models.Post{}, errors.DB(err, "failed to read post")
	}
	return post, nil
}

// Update changes the content and/or options of a post. Nil arguments are left untouched.
func (s *PostService) Update(ctx context.Context, id primitive.ObjectID, content *string, options *models.PostOptions) (models.Message, error) {
	set := bson.M{"date_updated": time.Now().UTC()}
	if content != nil {
		if strings.TrimSpace(*content) == "" {
			return models.Message{}, errors.NotAllowed("Post content must be non-empty!")
		}
		set["content"] = *content
	}
	if options != nil {
		set["options"] = options
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return models.Message{}, errors.DB(err, "failed to update post")
	}
	if result.MatchedCount == 0 {
		return models.Message{}, errors.NotFound("Post %s does not exist!", id.Hex())
	}
	return models.Message{Msg: "Post successfully updated!"}, nil
}

func (s *PostService) Delete(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return models.Message{}, errors.DB(err, "failed to delete post")
	}
	return models.Message{Msg: "Post deleted successfully!"}, nil
}

// AssertAuthorIsUser fails unless user wrote the post.
func (s *PostService) AssertAuthorIsUser(ctx context.Context, id, user primitive.ObjectID) error {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.Author != user {
		return errors.NotAllowed("%s is not the author of post %s!", user.Hex(), id.Hex())
	}
	return nil
}

func (s *PostService) readMany(ctx context.Context, filter bson.M) ([]models.Post, error) {
	posts, err := findAll[models.Post](ctx, s.collection, filter, newestFirst())
	if err != nil {
		return nil, errors.DB(err, "failed to read posts")
	}
	return posts, nil
}
