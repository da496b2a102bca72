// Package seed provides helpers to create demo data for the tours database.
// These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tours/internal/models"
	"tours/internal/observability"
	"tours/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Options controls what a Seeder generates.
type Options struct {
	// Seed makes generated content reproducible. Zero picks a random seed.
	Seed int64
	// SkipBcrypt stores the plain password; only for fast test runs.
	SkipBcrypt bool
	// MaxCommentsPerTour bounds the random comments added to each tour.
	MaxCommentsPerTour int
}

// Seeder writes users, tours, comments, and likes through the repositories
// so every counter matches the rows behind it.
type Seeder struct {
	db       *gorm.DB
	opts     Options
	faker    *gofakeit.Faker
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
}

// Result summarizes a seeding run.
type Result struct {
	Users    int
	Tours    int
	Comments int
	Likes    int
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxCommentsPerTour < 0 {
		opts.MaxCommentsPerTour = 0
	}
	return &Seeder{
		db:       db,
		opts:     opts,
		faker:    gofakeit.New(seed),
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
	}
}

// ClearAll hard-deletes likes, comments, tours, and users.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped()
	for _, model := range []any{&models.Like{}, &models.Comment{}, &models.Post{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	observability.GlobalLogger.InfoContext(ctx, "Cleared seeded tables")
	return nil
}

func (s *Seeder) hashPassword() (string, error) {
	if s.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CreateUser stores a user with the default password.
func (s *Seeder) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	password, err := s.hashPassword()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: password,
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SeedUsers creates n random users.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(s.faker.Username()), i)
		user, err := s.CreateUser(ctx, username, fmt.Sprintf("%s@example.com", username))
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedTours creates n random tours spread over the last 90 days, each with
// random comments, likes, and reads.
func (s *Seeder) SeedTours(ctx context.Context, users []*models.User, n int) (Result, error) {
	var res Result
	if len(users) == 0 || n <= 0 {
		return res, nil
	}

	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		stops := make([]string, s.faker.Number(1, 4))
		for j := range stops {
			stops[j] = strings.ReplaceAll(s.faker.City(), " ", "-")
		}

		post := &models.Post{
			UserID:       author.ID,
			Title:        fmt.Sprintf("%s in %s", strings.TrimSuffix(s.faker.Sentence(3), "."), stops[0]),
			Content:      s.faker.Paragraph(2, 4, 12, "\n\n"),
			Destinations: models.StringSlice(stops),
			Course:       strings.Join(stops, " -> "),
			Cost:         fmt.Sprintf("%.0f %s", s.faker.Price(100, 5000), s.faker.CurrencyShort()),
			NumReads:     s.faker.Number(0, 500),
			CreatedAt:    now.Add(-time.Duration(s.faker.Number(0, 90*24*60)) * time.Minute),
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return res, fmt.Errorf("create tour %d: %w", i, err)
		}
		res.Tours++

		for c := s.faker.Number(0, s.opts.MaxCommentsPerTour); c > 0; c-- {
			commenter := users[s.faker.Number(0, len(users)-1)]
			if _, err := s.comment(ctx, post.ID, commenter.ID, s.faker.Sentence(8)); err != nil {
				return res, err
			}
			res.Comments++
		}

		for _, liker := range users {
			if s.faker.Number(0, 3) != 0 {
				continue
			}
			created, err := s.posts.AddLike(ctx, liker.ID, post.ID)
			if err != nil {
				return res, fmt.Errorf("like tour %d: %w", post.ID, err)
			}
			if created {
				res.Likes++
			}
		}
	}
	return res, nil
}

func (s *Seeder) comment(ctx context.Context, postID, userID uint, content string) (*models.Comment, error) {
	comment := &models.Comment{PostID: postID, UserID: userID, Content: content}
	if err := s.comments.CreateForPost(ctx, comment); err != nil {
		return nil, fmt.Errorf("comment on tour %d: %w", postID, err)
	}
	return comment, nil
}

// Run clears nothing and seeds numUsers users and numTours tours.
func (s *Seeder) Run(ctx context.Context, numUsers, numTours int) (Result, error) {
	users, err := s.SeedUsers(ctx, numUsers)
	if err != nil {
		return Result{}, err
	}
	res, err := s.SeedTours(ctx, users, numTours)
	res.Users = len(users)
	if err != nil {
		return res, err
	}

	observability.GlobalLogger.InfoContext(ctx, "Seeding complete",
		slog.Int("users", res.Users),
		slog.Int("tours", res.Tours),
		slog.Int("comments", res.Comments),
		slog.Int("likes", res.Likes),
	)
	return res, nil
}
