package main

import (
	"context"
	"flag"

	"github.com/pageza/chef-next-door/backend/config"
	"github.com/pageza/chef-next-door/backend/internal/database"
	"github.com/pageza/chef-next-door/backend/internal/logging"
)

func main() {
	bucketPolicy := flag.Bool("bucket-policy", false, "Apply the public read policy to the S3 image bucket")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(logging.Options{}).WithError(err).Fatal("failed to load configuration")
	}
	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Backend == config.BackendSupabase {
		log.Fatal("the supabase backend is migrated through the hosted project, not this tool")
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, log); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	log.Info("all migrations applied")

	if *bucketPolicy {
		if cfg.Storage.Provider != "s3" {
			log.WithField("provider", cfg.Storage.Provider).Fatal("bucket policy only applies to the s3 provider")
		}
		ctx := context.Background()
		s3cfg, err := config.NewS3Config(ctx, cfg.Storage)
		if err != nil {
			log.WithError(err).Fatal("failed to configure s3")
		}
		if err := s3cfg.SetupBucketPolicy(ctx); err != nil {
			log.WithError(err).Fatal("failed to apply bucket policy")
		}
		log.WithField("bucket", s3cfg.BucketName).Info("bucket policy applied")
	}
}
