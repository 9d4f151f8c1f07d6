package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/eshop-api/internal/domain/auth"
	"github.com/xenking/eshop-api/internal/domain/product"
	"github.com/xenking/eshop-api/internal/domain/user"
	"github.com/xenking/eshop-api/internal/storage/mongodb"
)

type catalogJSON struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
}

type categoryJSON struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type productJSON struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	Brand        string          `json:"brand"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category"`
	CountInStock int             `json:"countInStock"`
	Rating       int             `json:"rating"`
	IsFeatured   bool            `json:"isFeatured"`
}

func main() {
	var (
		mongoURL    string
		database    string
		catalogFile string
		adminEmail  string
		adminName   string
		authSecret  string
	)

	flag.StringVar(&mongoURL, "mongo-url", "", "MongoDB connection URL (or CONNECTION_STRING env)")
	flag.StringVar(&database, "database", "eshop", "MongoDB database name")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&adminEmail, "admin-email", "admin@eshop.local", "email of the admin user to seed")
	flag.StringVar(&adminName, "admin-name", "Admin", "name of the admin user to seed")
	flag.StringVar(&authSecret, "auth-secret", "", "HMAC secret for signing the admin token (or ESHOP_AUTH_SECRET env)")
	flag.Parse()

	if mongoURL == "" {
		mongoURL = os.Getenv("CONNECTION_STRING")
	}
	if mongoURL == "" {
		slog.Error("mongo URL is required: set --mongo-url or CONNECTION_STRING")
		os.Exit(1)
	}
	if authSecret == "" {
		authSecret = os.Getenv("ESHOP_AUTH_SECRET")
	}
	if authSecret == "" {
		slog.Error("auth secret is required: set --auth-secret or ESHOP_AUTH_SECRET")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, mongoURL, database, catalogFile, adminEmail, adminName, authSecret); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, mongoURL, database, catalogFile, adminEmail, adminName, authSecret string) error {
	slog.Info("connecting to database")

	client, err := mongodb.Connect(ctx, mongoURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Error("disconnect", slog.String("error", err.Error()))
		}
	}()
	db := client.Database(database)

	catalog, err := readCatalog(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog")
	}

	categoryIDs, err := seedCategories(ctx, mongodb.NewCategoryRepository(db), catalog.Categories)
	if err != nil {
		return errors.Wrap(err, "seed categories")
	}

	if err := seedProducts(ctx, mongodb.NewProductRepository(db), catalog.Products, categoryIDs); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedAdmin(ctx, mongodb.NewUserRepository(db), adminEmail, adminName, authSecret); err != nil {
		return errors.Wrap(err, "seed admin user")
	}

	return nil
}

func readCatalog(path string) (*catalogJSON, error) {
	slog.Info("reading catalog file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}

	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}
	return &catalog, nil
}

func seedCategories(ctx context.Context, repo *mongodb.CategoryRepository, categories []categoryJSON) (map[string]string, error) {
	slog.Info("upserting categories", slog.Int("count", len(categories)))

	ids := make(map[string]string, len(categories))
	for _, c := range categories {
		id, err := repo.UpsertByName(ctx, &product.Category{
			Name:  c.Name,
			Icon:  c.Icon,
			Color: c.Color,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "upsert category %s", c.Name)
		}
		ids[c.Name] = id

		slog.Info("upserted category", slog.String("id", id), slog.String("name", c.Name))
	}
	return ids, nil
}

func seedProducts(ctx context.Context, repo *mongodb.ProductRepository, products []productJSON, categoryIDs map[string]string) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		categoryID, ok := categoryIDs[p.Category]
		if !ok {
			return errors.Errorf("product %s references unknown category %s", p.Name, p.Category)
		}

		id, err := repo.UpsertByName(ctx, &product.Product{
			Name:         p.Name,
			Description:  p.Description,
			Image:        p.Image,
			Brand:        p.Brand,
			Price:        p.Price,
			CategoryID:   categoryID,
			CountInStock: p.CountInStock,
			Rating:       p.Rating,
			IsFeatured:   p.IsFeatured,
			DateCreated:  time.Now().UTC(),
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Name)
		}

		slog.Info("upserted product", slog.String("id", id), slog.String("name", p.Name))
	}
	return nil
}

func seedAdmin(ctx context.Context, repo *mongodb.UserRepository, email, name, secret string) error {
	slog.Info("seeding admin user", slog.String("email", email))

	id, err := repo.UpsertByEmail(ctx, &user.User{
		Name:    name,
		Email:   email,
		IsAdmin: true,
	})
	if err != nil {
		return errors.Wrapf(err, "upsert user %s", email)
	}

	token, err := auth.Sign([]byte(secret), id, email, true, 24*time.Hour)
	if err != nil {
		return errors.Wrap(err, "sign admin token")
	}

	slog.Info("upserted admin user", slog.String("id", id))
	fmt.Printf("admin bearer token (valid 24h):\n%s\n", token)

	return nil
}
