// Package seed fills a database with demo content through the services, so
// seeded data obeys the same rules as data created over the API.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"inkwell/internal/credentials"
	"inkwell/internal/database"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	// LikeRatio is the chance, between 0 and 1, that a user likes a given post.
	LikeRatio float64
	Tags      []string
}

// Summary counts what a seeding run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// Seeder creates users, posts, comments and likes.
type Seeder struct {
	identity   *service.IdentityService
	posts      *service.PostService
	engagement *service.EngagementService
	faker      *gofakeit.Faker
}

// NewSeeder returns a Seeder whose generated content is reproducible for a given seed.
func NewSeeder(identity *service.IdentityService, posts *service.PostService, engagement *service.EngagementService, seed int64) *Seeder {
	return &Seeder{
		identity:   identity,
		posts:      posts,
		engagement: engagement,
		faker:      gofakeit.New(seed),
	}
}

// FromDB wires the services a Seeder needs directly on db. Seeding never
// starts sessions, so no session manager is configured.
func FromDB(db *gorm.DB, hasher credentials.Hasher, store media.Store, seed int64) *Seeder {
	tx := database.NewTransactor(db)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	tags := repository.NewTagRepository(db)

	return NewSeeder(
		service.NewIdentityService(tx, users, hasher, nil, store),
		service.NewPostService(tx, posts, tags, store),
		service.NewEngagementService(tx, posts, repository.NewCommentRepository(db), repository.NewLikeRepository(db), users),
		seed,
	)
}

// ClearAll removes every row from the content tables, children first.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	all := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{
		&models.PostTag{},
		&models.Like{},
		&models.Comment{},
		&models.Post{},
		&models.Tag{},
		&models.User{},
	} {
		if err := all.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// maxUserConflicts bounds how many taken usernames or emails Generate skips.
const maxUserConflicts = 50

var defaultTags = []string{"go", "databases", "devops", "frontend", "career", "testing", "security", "cloud"}

var nonUsernameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Generate creates random content according to opts.
func (s *Seeder) Generate(ctx context.Context, opts Options) (*Summary, error) {
	tags := opts.Tags
	if len(tags) == 0 {
		tags = defaultTags
	}

	sum := &Summary{}
	actors := make([]models.Actor, 0, opts.NumUsers)
	conflicts := 0
	for len(actors) < opts.NumUsers {
		user, err := s.identity.Register(ctx, service.RegisterInput{
			Username: s.username(),
			Email:    s.faker.Email(),
			Password: DefaultPassword,
		})
		if err != nil {
			if models.HasCode(err, models.CodeConflict) {
				conflicts++
				if conflicts > maxUserConflicts {
					return sum, fmt.Errorf("create user: gave up after %d conflicting names: %w", conflicts, err)
				}
				continue
			}
			return sum, fmt.Errorf("create user: %w", err)
		}
		actors = append(actors, models.Actor{UserID: user.ID})
		sum.Users++
	}
	if len(actors) == 0 {
		return sum, nil
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := actors[s.faker.Number(0, len(actors)-1)]
		post, err := s.posts.CreatePost(ctx, author, service.CreatePostInput{
			Title:   strings.TrimSuffix(s.faker.Sentence(s.faker.Number(3, 8)), "."),
			Content: s.faker.Paragraph(s.faker.Number(1, 4), 4, 12, "\n\n"),
			Tags:    s.pickTags(tags),
		})
		if err != nil {
			return sum, fmt.Errorf("create post: %w", err)
		}
		sum.Posts++

		for j := 0; j < opts.CommentsPerPost; j++ {
			commenter := actors[s.faker.Number(0, len(actors)-1)]
			if _, err := s.engagement.AddComment(ctx, commenter, post.ID, s.faker.Sentence(s.faker.Number(4, 14))); err != nil {
				return sum, fmt.Errorf("add comment: %w", err)
			}
			sum.Comments++
		}

		for _, reader := range actors {
			if s.faker.Float64Range(0, 1) >= opts.LikeRatio {
				continue
			}
			if _, err := s.engagement.ToggleLike(ctx, reader, post.ID); err != nil {
				return sum, fmt.Errorf("like post: %w", err)
			}
			sum.Likes++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed data generated",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("likes", sum.Likes),
	)
	return sum, nil
}

// username returns a fake username that passes registration rules.
func (s *Seeder) username() string {
	base := nonUsernameChars.ReplaceAllString(s.faker.Username(), "")
	if len(base) > 20 {
		base = base[:20]
	}
	if len(base) < 3 {
		base = "user"
	}
	return fmt.Sprintf("%s%d", strings.ToLower(base), s.faker.Number(100, 999))
}

func (s *Seeder) pickTags(pool []string) []string {
	n := s.faker.Number(0, 3)
	picked := make([]string, 0, n)
	for i := 0; i < n; i++ {
		picked = append(picked, pool[s.faker.Number(0, len(pool)-1)])
	}
	return picked
}
