package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"shop-backend/internal/errx"
	"shop-backend/internal/redisx"
)

// Store is what the service needs from persistence; *Repo satisfies it.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id int64, params UpdateParams) (Product, error)
	SetImageURL(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) error
}

// Uploader puts an object into blob storage and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type Service struct {
	Store Store
	Blobs Uploader
	Redis *redis.Client
}

type CreateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	StockCount  int
	Category    string
}

// Image is an attached file from the multipart request.
type Image struct {
	ContentType string
	Body        io.Reader
}

func imageKey(productID int64) string { return fmt.Sprintf("products/%d", productID) }

// Create inserts the product first and uploads the image after. An upload
// failure leaves the committed row in place (image unset) and fails the
// request; the caller sees ExternalError, not a rollback.
func (s *Service) Create(ctx context.Context, in CreateInput, img *Image) (Product, error) {
	if in.Name == "" || in.Description == "" {
		return Product{}, errx.Invalidf("name and description are required")
	}
	if in.Price.IsNegative() {
		return Product{}, errx.Invalidf("price must not be negative")
	}
	if in.StockCount <= 0 {
		return Product{}, errx.Invalidf("stock count must be greater than 0")
	}
	if in.Category == "" {
		in.Category = DefaultCategory
	}

	p := Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		StockCount:  in.StockCount,
		Category:    in.Category,
	}
	if err := s.Store.Create(ctx, &p); err != nil {
		return Product{}, err
	}

	if img != nil && s.Blobs != nil {
		url, err := s.Blobs.Upload(ctx, imageKey(p.ID), img.ContentType, img.Body)
		if err != nil {
			return p, &errx.ExternalError{Op: "upload product image", Err: err}
		}
		if err := s.Store.SetImageURL(ctx, p.ID, url); err != nil {
			return p, err
		}
		p.ImageURL = &url
	}
	s.dropCache(ctx, p.ID)
	return p, nil
}

// Update uploads a new image first, as the source does: if the upload fails
// the field changes in the same request are not applied.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams, img *Image) (Product, error) {
	if params.Price != nil && params.Price.IsNegative() {
		return Product{}, errx.Invalidf("price must not be negative")
	}
	if params.StockCount != nil && *params.StockCount < 0 {
		return Product{}, errx.Invalidf("stock count must not be negative")
	}

	if img != nil && s.Blobs != nil {
		if _, err := s.Store.Get(ctx, id); err != nil {
			return Product{}, err
		}
		url, err := s.Blobs.Upload(ctx, imageKey(id), img.ContentType, img.Body)
		if err != nil {
			return Product{}, &errx.ExternalError{Op: "upload product image", Err: err}
		}
		if err := s.Store.SetImageURL(ctx, id, url); err != nil {
			return Product{}, err
		}
	}

	p, err := s.Store.Update(ctx, id, params)
	if err != nil {
		return Product{}, err
	}
	s.dropCache(ctx, id)
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.Store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyProduct, id)
		if b, err := s.Redis.Get(ctx, key).Bytes(); err == nil {
			var p Product
			if json.Unmarshal(b, &p) == nil {
				return p, nil
			}
		}
	}
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	s.cache(ctx, p)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.dropCache(ctx, id)
	return nil
}

func (s *Service) cache(ctx context.Context, p Product) {
	if s.Redis == nil {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyProduct, p.ID), b, redisx.TTLProductCache).Err()
}

func (s *Service) dropCache(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyProduct, id)).Err()
}
