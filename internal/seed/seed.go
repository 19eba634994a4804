// Package seed populates a datastore with fake authors, posts and comments for local development.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"

	"inkwell/internal/auth"
	"inkwell/internal/bootstrap"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is shared by every seeded user.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
}

// Seeder drives the application services so seeded rows go through the
// same validation, hashing and storage paths as real requests.
type Seeder struct {
	credentials *service.CredentialService
	posts       *service.PostService
	comments    *service.CommentService
	faker       *gofakeit.Faker
}

// NewSeeder builds a seeder over the runtime's repositories and storage.
func NewSeeder(rt *bootstrap.Runtime, bcryptCost int, seed int64) *Seeder {
	return &Seeder{
		credentials: service.NewCredentialService(rt.Users, bcryptCost),
		posts:       service.NewPostService(rt.Posts, rt.Storage),
		comments:    service.NewCommentService(rt.Comments),
		faker:       gofakeit.New(seed),
	}
}

// Result summarizes what a run created.
type Result struct {
	Users    []*models.User
	Posts    []*models.Post
	Comments int
}

// Run creates opts.NumUsers authors, spreads opts.NumPosts posts across them
// and adds comments from random authors.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.NumUsers <= 0 {
		return nil, fmt.Errorf("at least one user is required")
	}

	res := &Result{}
	for i := 0; i < opts.NumUsers; i++ {
		username := fmt.Sprintf("%s%d", s.faker.Username(), s.faker.Number(100, 999))
		user, err := s.credentials.Register(ctx, username, DefaultPassword)
		if err != nil {
			if models.HasCode(err, models.CodeConflict) {
				continue
			}
			return res, fmt.Errorf("seed user %q: %w", username, err)
		}
		res.Users = append(res.Users, user)
	}
	if len(res.Users) == 0 {
		return res, fmt.Errorf("no users could be created")
	}
	log.Printf("Created %d users", len(res.Users))

	for i := 0; i < opts.NumPosts; i++ {
		author := res.Users[s.faker.Number(0, len(res.Users)-1)]
		cover, err := s.coverImage()
		if err != nil {
			return res, err
		}
		post, err := s.posts.CreatePost(ctx, identityOf(author), service.CreatePostInput{
			Title:   s.faker.Sentence(5),
			Summary: s.faker.Sentence(12),
			Content: "<p>" + s.faker.Paragraph(2, 4, 8, "</p><p>") + "</p>",
			File: &service.Upload{
				Filename: "cover.png",
				Size:     int64(len(cover)),
				Content:  bytes.NewReader(cover),
			},
		})
		if err != nil {
			return res, fmt.Errorf("seed post: %w", err)
		}
		res.Posts = append(res.Posts, post)

		for j := 0; j < opts.CommentsPerPost; j++ {
			commenter := res.Users[s.faker.Number(0, len(res.Users)-1)]
			if _, err := s.comments.CreateComment(ctx, identityOf(commenter), post.ID, s.faker.Sentence(8)); err != nil {
				return res, fmt.Errorf("seed comment: %w", err)
			}
			res.Comments++
		}
	}
	log.Printf("Created %d posts and %d comments", len(res.Posts), res.Comments)

	return res, nil
}

// coverImage renders a small solid-color PNG.
func (s *Seeder) coverImage() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	fill := color.RGBA{R: s.faker.Uint8(), G: s.faker.Uint8(), B: s.faker.Uint8(), A: 255}
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Username: u.Username}
}
