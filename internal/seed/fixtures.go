package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"tours/internal/models"

	"gopkg.in/yaml.v3"
)

// Fixtures is a hand-written data set loaded from YAML.
//
//	users:
//	  - username: mina
//	    email: mina@example.com
//	tours:
//	  - author: mina
//	    title: Korea in a week
//	    content: ...
//	    course: Seoul -> Busan
//	    cost: 1200 USD
//	    destination: Seoul Busan
//	    comments:
//	      - author: mina
//	        content: Great trip
type Fixtures struct {
	Users []FixtureUser `yaml:"users"`
	Tours []FixtureTour `yaml:"tours"`
}

// FixtureUser is a user entry.
type FixtureUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
}

// FixtureTour is a tour entry. Author refers to a username.
type FixtureTour struct {
	Author      string           `yaml:"author"`
	Title       string           `yaml:"title"`
	Content     string           `yaml:"content"`
	Course      string           `yaml:"course"`
	Cost        string           `yaml:"cost"`
	Destination string           `yaml:"destination"`
	CreatedAt   time.Time        `yaml:"created_at"`
	Comments    []FixtureComment `yaml:"comments"`
	LikedBy     []string         `yaml:"liked_by"`
}

// FixtureComment is a comment entry. Author refers to a username.
type FixtureComment struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// ParseFixtures decodes a fixtures document.
func ParseFixtures(raw []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// LoadFixtureFile reads and applies the fixtures at path.
func (s *Seeder) LoadFixtureFile(ctx context.Context, path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read fixtures: %w", err)
	}
	f, err := ParseFixtures(raw)
	if err != nil {
		return Result{}, err
	}
	return s.ApplyFixtures(ctx, f)
}

// ApplyFixtures stores f. Users referenced by tours must be declared in f or
// already exist.
func (s *Seeder) ApplyFixtures(ctx context.Context, f *Fixtures) (Result, error) {
	var res Result
	byName := make(map[string]*models.User, len(f.Users))

	for _, u := range f.Users {
		email := u.Email
		if email == "" {
			email = u.Username + "@example.com"
		}
		user, err := s.CreateUser(ctx, u.Username, email)
		if err != nil {
			return res, fmt.Errorf("fixture user %q: %w", u.Username, err)
		}
		byName[u.Username] = user
		res.Users++
	}

	lookup := func(username string) (*models.User, error) {
		if user, ok := byName[username]; ok {
			return user, nil
		}
		user, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("fixture author %q: %w", username, err)
		}
		byName[username] = user
		return user, nil
	}

	for _, t := range f.Tours {
		author, err := lookup(t.Author)
		if err != nil {
			return res, err
		}
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		post := &models.Post{
			UserID:       author.ID,
			Title:        t.Title,
			Content:      t.Content,
			Destinations: models.ParseDestinations(t.Destination),
			Course:       t.Course,
			Cost:         t.Cost,
			CreatedAt:    createdAt.UTC(),
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return res, fmt.Errorf("fixture tour %q: %w", t.Title, err)
		}
		res.Tours++

		for _, c := range t.Comments {
			commenter, err := lookup(c.Author)
			if err != nil {
				return res, err
			}
			if _, err := s.comment(ctx, post.ID, commenter.ID, c.Content); err != nil {
				return res, err
			}
			res.Comments++
		}

		for _, name := range t.LikedBy {
			liker, err := lookup(name)
			if err != nil {
				return res, err
			}
			created, err := s.posts.AddLike(ctx, liker.ID, post.ID)
			if err != nil {
				return res, fmt.Errorf("fixture like %q: %w", name, err)
			}
			if created {
				res.Likes++
			}
		}
	}
	return res, nil
}
