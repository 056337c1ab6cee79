package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"gorm.io/datatypes"
)

var (
	ErrValidation   = errors.New("validation")     // 400
	ErrNotFound     = errors.New("not found")      // 404
	ErrProductInUse = errors.New("product in use") // 409
)

type CatalogService struct {
	Repo   *GormRepo
	Index  search.Index
	Events events.Publisher
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

// ListAll feeds the chat assistant's catalog prompt.
func (s *CatalogService) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListAll(ctx)
}

func validate(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("name required: %w", ErrValidation)
	}
	if p.Price <= 0 {
		return fmt.Errorf("price must be > 0: %w", ErrValidation)
	}
	if p.MRP == 0 {
		p.MRP = p.Price
	}
	if p.MRP < p.Price {
		return fmt.Errorf("mrp %d below price %d: %w", p.MRP, p.Price, ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must be >= 0: %w", ErrValidation)
	}

	var base pricing.Size
	for i, label := range p.PackSizes {
		sz, err := pricing.ParseSize(label)
		if err != nil {
			return fmt.Errorf("pack size %q: %w", label, ErrValidation)
		}
		if i == 0 {
			base = sz
			continue
		}
		if sz.Dim != base.Dim {
			return fmt.Errorf("pack size %q is %s, base %q is %s: %w", label, sz.Dim, base.Label, base.Dim, ErrValidation)
		}
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	p := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		MRP:         req.MRP,
		Price:       req.Price,
		PackSizes:   datatypes.JSONSlice[string](req.PackSizes),
		Stock:       req.Stock,
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.syncIndex(ctx, *p)
	s.publish(ctx, p.ID, map[string]any{"type": "product_created", "name": p.Name, "price": p.Price, "stock": p.Stock})
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uint) (*models.Product, error) {
	p, err := s.Repo.UpdateProduct(ctx, id, func(p *models.Product) error {
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Category != nil {
			p.Category = strings.TrimSpace(*req.Category)
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		if req.MRP != nil {
			p.MRP = *req.MRP
		}
		if req.PackSizes != nil {
			p.PackSizes = datatypes.JSONSlice[string](*req.PackSizes)
		}
		return validate(p)
	})
	if err != nil {
		return nil, err
	}

	s.syncIndex(ctx, *p)
	s.publish(ctx, p.ID, map[string]any{"type": "product_updated", "name": p.Name, "price": p.Price})
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_delete_failed", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, id, map[string]any{"type": "product_deleted"})
	return nil
}

func (s *CatalogService) Restock(ctx context.Context, id uint, delta int64) (*models.Product, error) {
	if delta == 0 {
		return nil, fmt.Errorf("delta must not be zero: %w", ErrValidation)
	}
	p, err := s.Repo.Restock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, id, map[string]any{"type": "product_restocked", "delta": delta, "stock": p.Stock})
	return p, nil
}

// Quote prices the requested pack size against the product's base pack.
// Labels that cannot be parsed quote the base price with Exact false.
func (s *CatalogService) Quote(ctx context.Context, id uint, size string) (*transport.QuoteResponse, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return nil, fmt.Errorf("size required: %w", ErrValidation)
	}
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	q := &transport.QuoteResponse{
		ProductID: p.ID,
		BaseSize:  p.BaseSize(),
		BasePrice: p.Price,
		Size:      size,
		Price:     p.Price,
	}
	price, err := pricing.ComputePrice(p.Price, q.BaseSize, size)
	if err != nil {
		logging.FromContext(ctx).Warn("price_quote_fallback", "product_id", p.ID, "base_size", q.BaseSize, "size", size, "error", err)
		return q, nil
	}
	q.Price = price
	q.Exact = true
	return q, nil
}

// Search goes to the search index when there is one and to SQL otherwise or
// when the index fails.
func (s *CatalogService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query required: %w", ErrValidation)
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.ProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "query", q, "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

// Reindex pushes every product into the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	items, err := s.Repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	for i, p := range items {
		if err := s.Index.Upsert(ctx, p); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func (s *CatalogService) syncIndex(ctx context.Context, p models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Upsert(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_upsert_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, id uint, ev map[string]any) {
	if s.Events == nil {
		return
	}
	ev["product_id"] = id
	ev["occurred_at"] = time.Now().UTC()
	if err := s.Events.PublishEvent(ctx, events.TopicProduct, strconv.FormatUint(uint64(id), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", events.TopicProduct, "type", ev["type"], "error", err)
	}
}
