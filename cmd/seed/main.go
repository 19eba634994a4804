// Command seed populates the configured datastore with fake authors, posts and comments.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numPosts := flag.Int("posts", 30, "Number of posts to create")
	comments := flag.Int("comments", 3, "Comments per post")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			log.Printf("Runtime close error: %v", err)
		}
	}()

	log.Printf("Seeding %d users, %d posts, %d comments per post", *numUsers, *numPosts, *comments)
	_, err = seed.NewSeeder(rt, cfg.EffectiveBcryptCost(), *seedValue).Run(ctx, seed.Options{
		NumUsers:        *numUsers,
		NumPosts:        *numPosts,
		CommentsPerPost: *comments,
	})
	if err != nil {
		log.Printf("Seeding failed: %v", err)
		return
	}
	log.Printf("Done. All seeded users have the password: %s", seed.DefaultPassword)
}
