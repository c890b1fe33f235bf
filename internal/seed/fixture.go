package seed

import (
	"context"
	"fmt"
	"io"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"gopkg.in/yaml.v3"
)

// Fixture is a hand-written data set, usually loaded from YAML.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Posts []FixturePost `yaml:"posts"`
}

type FixtureUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type FixturePost struct {
	Author   string           `yaml:"author"`
	Title    string           `yaml:"title"`
	Content  string           `yaml:"content"`
	Tags     []string         `yaml:"tags"`
	Comments []FixtureComment `yaml:"comments"`
	LikedBy  []string         `yaml:"liked_by"`
}

type FixtureComment struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// LoadFixture decodes a YAML fixture.
func LoadFixture(r io.Reader) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

// ApplyFixture creates everything in fx. Authors, commenters and likers
// must be listed under users.
func (s *Seeder) ApplyFixture(ctx context.Context, fx *Fixture) (*Summary, error) {
	sum := &Summary{}
	actors := make(map[string]models.Actor, len(fx.Users))

	for _, u := range fx.Users {
		password := u.Password
		if password == "" {
			password = DefaultPassword
		}
		user, err := s.identity.Register(ctx, service.RegisterInput{
			Username: u.Username,
			Email:    u.Email,
			Password: password,
		})
		if err != nil {
			return sum, fmt.Errorf("create user %q: %w", u.Username, err)
		}
		actors[user.Username] = models.Actor{UserID: user.ID}
		sum.Users++
	}

	lookup := func(name string) (models.Actor, error) {
		actor, ok := actors[name]
		if !ok {
			return models.Actor{}, fmt.Errorf("unknown fixture user %q", name)
		}
		return actor, nil
	}

	for _, p := range fx.Posts {
		author, err := lookup(p.Author)
		if err != nil {
			return sum, err
		}
		post, err := s.posts.CreatePost(ctx, author, service.CreatePostInput{
			Title:   p.Title,
			Content: p.Content,
			Tags:    p.Tags,
		})
		if err != nil {
			return sum, fmt.Errorf("create post %q: %w", p.Title, err)
		}
		sum.Posts++

		for _, c := range p.Comments {
			commenter, err := lookup(c.Author)
			if err != nil {
				return sum, err
			}
			if _, err := s.engagement.AddComment(ctx, commenter, post.ID, c.Content); err != nil {
				return sum, fmt.Errorf("comment on %q: %w", p.Title, err)
			}
			sum.Comments++
		}

		for _, name := range p.LikedBy {
			liker, err := lookup(name)
			if err != nil {
				return sum, err
			}
			if _, err := s.engagement.ToggleLike(ctx, liker, post.ID); err != nil {
				return sum, fmt.Errorf("like %q: %w", p.Title, err)
			}
			sum.Likes++
		}
	}

	return sum, nil
}
