// Command main runs the database seeder for Inkwell.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/credentials"
	"inkwell/internal/database"
	"inkwell/internal/seed"
	"inkwell/internal/server"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 60, "Number of posts to create")
	comments := flag.Int("comments", 3, "Comments per generated post")
	likeRatio := flag.Float64("like-ratio", 0.3, "Chance that a user likes a generated post")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	fixture := flag.String("fixture", "", "Load a YAML fixture instead of generating random data")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated data")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := server.NewMediaStore(cfg)
	if err != nil {
		log.Fatalf("Failed to configure media storage: %v", err)
	}

	ctx := context.Background()
	s := seed.FromDB(db, credentials.NewBcryptHasher(), store, *randSeed)

	if *shouldClean {
		if err := seed.ClearAll(ctx, db); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	var sum *seed.Summary
	if *fixture != "" {
		log.Printf("Loading fixture: %s\n", *fixture)
		f, err := os.Open(*fixture)
		if err != nil {
			log.Fatalf("❌ Cannot open fixture: %v", err)
		}
		fx, err := seed.LoadFixture(f)
		f.Close()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		sum, err = s.ApplyFixture(ctx, fx)
		if err != nil {
			log.Fatalf("❌ Fixture seeding failed: %v", err)
		}
	} else {
		log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)
		sum, err = s.Generate(ctx, seed.Options{
			NumUsers:        *numUsers,
			NumPosts:        *numPosts,
			CommentsPerPost: *comments,
			LikeRatio:       *likeRatio,
		})
		if err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		log.Printf("📧 All generated users have the password: %s", seed.DefaultPassword)
	}

	log.Printf("✨ Done: %d users, %d posts, %d comments, %d likes", sum.Users, sum.Posts, sum.Comments, sum.Likes)
}
