package main

import (
	"context"
	"log"
	"os"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/model"
	"invoice-intake-be/internal/repository/specification"
	"invoice-intake-be/internal/repository/unitofwork"
	"invoice-intake-be/pkg/database"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// seedFile is the optional catalog/access bootstrap read from CATALOG_SEED_FILE.
type seedFile struct {
	Products []struct {
		ID       string   `yaml:"id"`
		Name     string   `yaml:"name"`
		Synonyms []string `yaml:"synonyms"`
	} `yaml:"products"`
	Access []struct {
		TelegramUserID int64    `yaml:"telegram_user_id"`
		Name           string   `yaml:"name"`
		TradePoints    []string `yaml:"trade_points"`
		WorkerID       int64    `yaml:"worker_id"`
	} `yaml:"access"`
}

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. AutoMigrate
	log.Println("Step 1: Running AutoMigrate...")
	models := []interface{}{
		&model.Product{},
		&model.UserAccess{},
		&model.InvoiceSubmission{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Optional seed
	path := os.Getenv("CATALOG_SEED_FILE")
	if path == "" {
		log.Println("Migration completed (no CATALOG_SEED_FILE, skipping seed)")
		return
	}

	log.Printf("Step 2: Seeding catalog from %s...", path)
	if err := seed(context.Background(), db, path); err != nil {
		log.Fatalf("Error: Seed failed: %v", err)
	}
	log.Println("Migration and seed completed!")
}

func seed(ctx context.Context, db *gorm.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var data seedFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return err
	}

	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	products := uow.ProductRepository()
	for _, p := range data.Products {
		existing, err := products.FindOne(ctx, specification.ByProductID{ProductID: p.ID})
		if err != nil {
			return err
		}
		if existing != nil {
			// learned synonyms are kept; the name follows the seed
			existing.Name = p.Name
			if err := products.Update(ctx, existing); err != nil {
				return err
			}
			log.Printf("Product '%s' already exists, name refreshed", p.ID)
			continue
		}
		if err := products.Create(ctx, &entity.Product{ProductID: p.ID, Name: p.Name, Synonyms: p.Synonyms}); err != nil {
			return err
		}
		log.Printf("Created product: %s (%s)", p.Name, p.ID)
	}

	access := uow.UserAccessRepository()
	for _, a := range data.Access {
		if err := access.Upsert(ctx, &entity.UserAccess{
			TelegramUserID: a.TelegramUserID,
			Name:           a.Name,
			TradePoints:    a.TradePoints,
			WorkerID:       a.WorkerID,
		}); err != nil {
			return err
		}
		log.Printf("Access granted: %d -> %v", a.TelegramUserID, a.TradePoints)
	}

	return uow.Commit()
}
