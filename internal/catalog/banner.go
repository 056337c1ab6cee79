package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
	"gorm.io/gorm"
)

const (
	maxBannerName  = 150
	maxBannerImage = 255
)

func bannerNotFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("banner %d: %w", id, ErrNotFound)
	}
	return err
}

func (r *GormRepo) ListBanners(ctx context.Context) ([]models.Banner, error) {
	items := []models.Banner{}
	if err := r.DB.WithContext(ctx).Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateBanner(ctx context.Context, b *models.Banner) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *GormRepo) UpdateBanner(ctx context.Context, id uint, apply func(b *models.Banner) error) (*models.Banner, error) {
	var b models.Banner
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, id).Error; err != nil {
			return bannerNotFound(err, id)
		}
		if err := apply(&b); err != nil {
			return err
		}
		return tx.Save(&b).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormRepo) DeleteBanner(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Banner{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("banner %d: %w", id, ErrNotFound)
	}
	return nil
}

// validateBanner accepts an absolute http(s) URL or a rooted path for Image.
func validateBanner(b *models.Banner) error {
	b.Name = strings.TrimSpace(b.Name)
	b.Image = strings.TrimSpace(b.Image)
	if b.Name == "" {
		return fmt.Errorf("name required: %w", ErrValidation)
	}
	if utf8.RuneCountInString(b.Name) > maxBannerName {
		return fmt.Errorf("name longer than %d characters: %w", maxBannerName, ErrValidation)
	}
	if b.Image == "" {
		return fmt.Errorf("image required: %w", ErrValidation)
	}
	if len(b.Image) > maxBannerImage {
		return fmt.Errorf("image longer than %d characters: %w", maxBannerImage, ErrValidation)
	}
	u, err := url.ParseRequestURI(b.Image)
	if err != nil {
		return fmt.Errorf("image %q: %w", b.Image, ErrValidation)
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("image scheme %q not allowed: %w", u.Scheme, ErrValidation)
	}
	return nil
}

func (s *CatalogService) ListBanners(ctx context.Context) ([]models.Banner, error) {
	return s.Repo.ListBanners(ctx)
}

func (s *CatalogService) CreateBanner(ctx context.Context, req transport.BannerRequest) (*models.Banner, error) {
	b := &models.Banner{Name: req.Name, Image: req.Image}
	if err := validateBanner(b); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateBanner(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *CatalogService) PatchBanner(ctx context.Context, req transport.PatchBannerRequest, id uint) (*models.Banner, error) {
	return s.Repo.UpdateBanner(ctx, id, func(b *models.Banner) error {
		if req.Name != nil {
			b.Name = *req.Name
		}
		if req.Image != nil {
			b.Image = *req.Image
		}
		return validateBanner(b)
	})
}

func (s *CatalogService) DeleteBanner(ctx context.Context, id uint) error {
	return s.Repo.DeleteBanner(ctx, id)
}
