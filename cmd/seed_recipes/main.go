package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/config"
	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/auth"
	"github.com/pageza/chef-next-door/backend/internal/database"
	"github.com/pageza/chef-next-door/backend/internal/logging"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/repository/gormstore"
	"github.com/pageza/chef-next-door/backend/internal/repository/supastore"
	"github.com/pageza/chef-next-door/backend/internal/service"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

//go:embed recipes.json
var demoRecipes []byte

func main() {
	email := flag.String("email", "demo-chef@example.com", "Email of the seeded chef")
	password := flag.String("password", "demo-chef-password", "Password of the seeded chef")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(logging.Options{}).WithError(err).Fatal("failed to load configuration")
	}
	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx := context.Background()

	var recipes []models.CreateRecipeData
	if err := json.Unmarshal(demoRecipes, &recipes); err != nil {
		log.WithError(err).Fatal("failed to parse demo recipes")
	}

	store, provider, err := backend(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to backend")
	}

	chef, err := signInOrUp(ctx, provider, *email, *password)
	if err != nil {
		log.WithError(err).Fatal("failed to sign in the demo chef")
	}
	sess := session.Static(chef.Identity)

	recipeService := service.NewRecipeService(store, log)
	created := 0
	for _, data := range recipes {
		recipe, err := recipeService.CreateRecipe(ctx, sess, data)
		if err != nil {
			log.WithError(err).WithField("title", data.Title).Warn("failed to create recipe")
			continue
		}
		created++
		log.WithFields(logrus.Fields{"id": recipe.ID, "title": recipe.Title}).Info("created recipe")
	}

	log.WithFields(logrus.Fields{"created": created, "chef_id": chef.Identity.ID}).Info("seeding finished")
}

func backend(cfg *config.Config, log logrus.FieldLogger) (repository.Store, auth.Provider, error) {
	if cfg.Backend == config.BackendSupabase {
		store := supastore.New(supastore.Config{
			URL:    cfg.Supabase.RestURL(),
			Schema: cfg.Supabase.Schema,
			APIKey: cfg.Supabase.AnonKey,
		})
		return store, auth.NewGoTrueProvider(cfg.Supabase.AuthURL(), cfg.Supabase.AnonKey, log), nil
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, log); err != nil {
		return nil, nil, err
	}
	verifier := session.NewVerifier(cfg.TokenSecret())
	return gormstore.New(db), auth.NewLocalProvider(db, verifier, log), nil
}

// signInOrUp signs the chef in, registering the account on first use.
func signInOrUp(ctx context.Context, provider auth.Provider, email, password string) (*auth.Result, error) {
	res, err := provider.SignIn(ctx, email, password)
	if err == nil {
		return res, nil
	}
	if !apperr.IsKind(err, apperr.KindNotAuthenticated) {
		return nil, err
	}
	return provider.SignUp(ctx, email, password, auth.SignUpProfile{FirstName: "Demo", LastName: "Chef"})
}
