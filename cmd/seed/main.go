package main

import (
	"context"
	"flag"
	"log"

	"campaign-editor/backend/internal/config"
	"campaign-editor/backend/internal/logging"
	"campaign-editor/backend/internal/repository"
	"campaign-editor/backend/pkg/models"
)

func main() {
	ctx := context.Background()

	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.NewLogger(cfg.Log.Level, true)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Connect to DB
	pool, err := repository.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	store := repository.NewPostgresCampaignStore(pool)

	morning := "06:30"
	campaigns := []struct {
		Campaign models.Campaign
		Linkage  string
	}{
		{
			Campaign: models.Campaign{
				Title:       "Smoke",
				Description: "Fast checks run after every deployment.",
				ScenarioIDs: []string{"1", "2"},
				Environment: "Dev",
				Tags:        []string{"smoke"},
			},
		},
		{
			Campaign: models.Campaign{
				Title:        "Nightly regression",
				Description:  "Full regression on the acceptance environment.",
				ScenarioIDs:  []string{"1", "10-1", "10-2"},
				Parameters:   map[string]string{"host": "acceptance.local", "user": "qa"},
				ScheduleTime: &morning,
				Environment:  "Acceptance",
				RetryAuto:    true,
				Tags:         []string{"nightly", "regression"},
			},
			Linkage: "QA-EXEC-1",
		},
		{
			Campaign: models.Campaign{
				Title:       "Payments",
				Description: "Card and transfer journeys.",
				ScenarioIDs: []string{"10-2"},
				Parameters:  map[string]string{"amount": "100"},
				ParallelRun: true,
				DatasetID:   "cards-eu",
				Tags:        []string{"bank"},
			},
		},
	}

	for _, seed := range campaigns {
		if _, ok, err := store.FindCampaignIDByTitle(ctx, seed.Campaign.Title); err != nil {
			log.Fatalf("Failed to look up campaign %s: %v", seed.Campaign.Title, err)
		} else if ok {
			logger.Info("Skipping existing campaign", "title", seed.Campaign.Title)
			continue
		}

		saved, err := store.CreateCampaign(ctx, &seed.Campaign)
		if err != nil {
			logger.Error("Failed to create campaign", "title", seed.Campaign.Title, "error", err)
			continue
		}
		logger.Info("Seeded campaign", "title", saved.Title, "id", *saved.ID)

		if seed.Linkage != "" {
			if err := store.SaveLinkage(ctx, *saved.ID, seed.Linkage); err != nil {
				logger.Error("Failed to link campaign", "id", *saved.ID, "linkage_id", seed.Linkage, "error", err)
			}
		}
	}
	logger.Info("Seeding complete!")
}
