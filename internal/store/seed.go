package store

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial content of a repository.
type Seed struct {
	Categories []models.Category
	Products   []models.Product
	Orders     []models.Order
	Users      []models.User
}

type seedFile struct {
	Categories []struct {
		ID   int64  `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"categories"`
	Products []struct {
		ID          int64  `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Price       string `yaml:"price"`
		Stock       int    `yaml:"stock"`
		ImageURL    string `yaml:"image_url"`
		CategoryID  int64  `yaml:"category_id"`
	} `yaml:"products"`
	Orders []struct {
		ID     string `yaml:"id"`
		UserID string `yaml:"user_id"`
		Items  []struct {
			ProductID int64 `yaml:"product_id"`
			Quantity  int   `yaml:"quantity"`
		} `yaml:"items"`
		Total        string `yaml:"total"`
		Status       string `yaml:"status"`
		CreatedAt    string `yaml:"created_at"`
		CustomerName string `yaml:"customer_name"`
	} `yaml:"orders"`
	Users []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
		Role  string `yaml:"role"`
	} `yaml:"users"`
}

// DefaultSeed returns the built-in demo catalog.
func DefaultSeed() *Seed {
	seed, err := ParseSeed(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return seed
}

// LoadSeed reads a seed file, falling back to the built-in catalog when path is empty.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document. Order line items reference products
// by id and capture a snapshot of the product as seeded.
func ParseSeed(data []byte) (*Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}

	seed := &Seed{}
	for _, c := range f.Categories {
		seed.Categories = append(seed.Categories, models.Category{ID: c.ID, Name: c.Name})
	}

	byID := make(map[int64]models.Product, len(f.Products))
	for _, p := range f.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d: invalid price %q: %w", p.ID, p.Price, err)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("product %d: duplicate id", p.ID)
		}
		product := models.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Stock:       p.Stock,
			ImageURL:    p.ImageURL,
			CategoryID:  p.CategoryID,
		}
		byID[p.ID] = product
		seed.Products = append(seed.Products, product)
	}

	for _, o := range f.Orders {
		total, err := decimal.NewFromString(o.Total)
		if err != nil {
			return nil, fmt.Errorf("order %s: invalid total %q: %w", o.ID, o.Total, err)
		}
		status, err := models.ParseOrderStatus(o.Status)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
		createdAt, err := time.Parse("2006-01-02", o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("order %s: invalid created_at %q: %w", o.ID, o.CreatedAt, err)
		}

		items := make([]models.CartItem, 0, len(o.Items))
		for _, it := range o.Items {
			product, ok := byID[it.ProductID]
			if !ok {
				return nil, fmt.Errorf("order %s: %w: %d", o.ID, models.ErrProductNotFound, it.ProductID)
			}
			items = append(items, models.CartItem{Product: product, Quantity: it.Quantity})
		}

		seed.Orders = append(seed.Orders, models.Order{
			ID:           o.ID,
			UserID:       o.UserID,
			Items:        items,
			Total:        total,
			Status:       status,
			CreatedAt:    createdAt,
			CustomerName: o.CustomerName,
		})
	}

	for _, u := range f.Users {
		role, err := models.ParseRole(u.Role)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.ID, err)
		}
		seed.Users = append(seed.Users, models.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: role})
	}

	return seed, nil
}
