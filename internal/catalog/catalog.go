// Package catalog загружает каталог магазина и список предлагаемых скидок.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/cartshop/internal/model"
	"github.com/mmeshcher/cartshop/internal/validation"
)

//go:embed default.yaml
var defaultDocument []byte

const maxFetchAttempts = 3

// ErrInvalidCatalog возвращается, если документ каталога не прошёл проверку.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog содержит товары магазина и скидки, которые он предлагает.
type Catalog struct {
	Shop      *model.Shop
	Discounts []model.Discount
}

type itemDocument struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Image string `yaml:"image"`
	Price string `yaml:"price"`
}

type document struct {
	Name      string               `yaml:"name"`
	Items     []itemDocument       `yaml:"items"`
	Discounts []model.DiscountSpec `yaml:"discounts"`
}

// Parse разбирает YAML-документ каталога и проверяет товары и скидки.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if doc.Name == "" {
		return nil, fmt.Errorf("%w: shop name is empty", ErrInvalidCatalog)
	}

	products := make([]model.Product, 0, len(doc.Items))
	for _, it := range doc.Items {
		if !validation.IsValidItemID(it.ID) {
			return nil, fmt.Errorf("%w: item id %q", ErrInvalidCatalog, it.ID)
		}
		price, err := model.ParseEuro(it.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: item %s: %v", ErrInvalidCatalog, it.ID, err)
		}
		products = append(products, model.Product{
			Item:  model.Item{ID: it.ID, Name: it.Name, Image: it.Image},
			Price: price,
		})
	}

	shop, err := model.NewShop(doc.Name, products)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{Shop: shop}
	for i, spec := range doc.Discounts {
		d, err := spec.Discount()
		if err != nil {
			return nil, fmt.Errorf("%w: discount %d: %v", ErrInvalidCatalog, i, err)
		}
		if err := validation.ValidateDiscount(d, shop); err != nil {
			return nil, fmt.Errorf("%w: discount %d: %v", ErrInvalidCatalog, i, err)
		}
		c.Discounts = append(c.Discounts, d)
	}

	return c, nil
}

// Default возвращает встроенный демонстрационный каталог.
func Default() (*Catalog, error) {
	return Parse(defaultDocument)
}

// Load загружает каталог из источника. Пустая строка означает встроенный каталог,
// http(s)-адрес указывает на удалённый сервис каталога, остальное считается путём к файлу.
func Load(ctx context.Context, source string) (*Catalog, error) {
	switch {
	case source == "":
		return Default()
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		data, err := fetchWithRetry(ctx, NewClient(source), maxFetchAttempts)
		if err != nil {
			return nil, err
		}
		return Parse(data)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		return Parse(data)
	}
}

// Offers сообщает, входит ли скидка в список предложений каталога.
func (c *Catalog) Offers(d model.Discount) bool {
	for _, offered := range c.Discounts {
		if offered == d {
			return true
		}
	}
	return false
}

func fetchWithRetry(ctx context.Context, c *Client, attempts int) ([]byte, error) {
	var err error
	for i := 0; i < attempts; i++ {
		var data []byte
		data, err = c.Fetch(ctx)
		if err == nil {
			return data, nil
		}

		var rateErr *RetryAfterError
		if !errors.As(err, &rateErr) || i == attempts-1 {
			break
		}

		timer := time.NewTimer(rateErr.After)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("fetch catalog: %w", err)
}
