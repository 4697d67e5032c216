package store

import (
	"context"
	"fmt"
	"time"

	"github.com/city-guide/api-go/cache"
	"github.com/city-guide/api-go/models"
)

const (
	keyAllLocations    = "locations:all"
	keyCategoryPrefix  = "locations:category:"
	keyLocationIDFmt   = "location:id:%d"
	keyLocationSlugFmt = "location:slug:%s"
)

// CachedLocations serves listing reads from a TTL cache and drops the
// affected keys after every write it performs.
type CachedLocations struct {
	*Locations

	lists   *cache.Cache[[]models.Location]
	items   *cache.Cache[models.Location]
	listTTL time.Duration
	itemTTL time.Duration
}

func NewCachedLocations(locations *Locations, listTTL, itemTTL time.Duration, opts ...cache.Option) *CachedLocations {
	return &CachedLocations{
		Locations: locations,
		lists:     cache.New[[]models.Location](opts...),
		items:     cache.New[models.Location](opts...),
		listTTL:   listTTL,
		itemTTL:   itemTTL,
	}
}

func (c *CachedLocations) List(ctx context.Context) ([]models.Location, error) {
	if v, ok := c.lists.Get(keyAllLocations); ok {
		return copyLocations(v), nil
	}
	locations, err := c.Locations.List(ctx)
	if err != nil {
		return nil, err
	}
	c.lists.Set(keyAllLocations, copyLocations(locations), c.listTTL)
	return locations, nil
}

func (c *CachedLocations) ListByCategory(ctx context.Context, category models.LocationCategory) ([]models.Location, error) {
	key := keyCategoryPrefix + string(category)
	if v, ok := c.lists.Get(key); ok {
		return copyLocations(v), nil
	}
	locations, err := c.Locations.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	c.lists.Set(key, copyLocations(locations), c.listTTL)
	return locations, nil
}

func (c *CachedLocations) GetByID(ctx context.Context, id uint) (*models.Location, error) {
	key := fmt.Sprintf(keyLocationIDFmt, id)
	if v, ok := c.items.Get(key); ok {
		return &v, nil
	}
	loc, err := c.Locations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.items.Set(key, *loc, c.itemTTL)
	return loc, nil
}

func (c *CachedLocations) GetBySlug(ctx context.Context, slug string) (*models.Location, error) {
	key := fmt.Sprintf(keyLocationSlugFmt, slug)
	if v, ok := c.items.Get(key); ok {
		return &v, nil
	}
	loc, err := c.Locations.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.items.Set(key, *loc, c.itemTTL)
	return loc, nil
}

func (c *CachedLocations) Create(ctx context.Context, loc *models.Location) error {
	if err := c.Locations.Create(ctx, loc); err != nil {
		return err
	}
	c.Invalidate(loc)
	return nil
}

func (c *CachedLocations) Update(ctx context.Context, loc *models.Location) error {
	// the slug may change, so drop the cached version under its old key too
	old, _ := c.Locations.GetByID(ctx, loc.ID)
	if err := c.Locations.Update(ctx, loc); err != nil {
		return err
	}
	c.Invalidate(old)
	c.Invalidate(loc)
	return nil
}

func (c *CachedLocations) Delete(ctx context.Context, id uint) (*models.Location, error) {
	deleted, err := c.Locations.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Invalidate(deleted)
	return deleted, nil
}

func (c *CachedLocations) UpsertByPlaceID(ctx context.Context, loc *models.Location) (*models.Location, error) {
	previous, err := c.Locations.UpsertByPlaceID(ctx, loc)
	if err != nil {
		return nil, err
	}
	c.Invalidate(previous)
	c.Invalidate(loc)
	return previous, nil
}

func (c *CachedLocations) AddPhoto(ctx context.Context, photo *models.LocationPhoto) error {
	if err := c.Locations.AddPhoto(ctx, photo); err != nil {
		return err
	}
	c.InvalidateID(ctx, photo.LocationID)
	return nil
}

func (c *CachedLocations) DeletePhoto(ctx context.Context, id uint) (*models.LocationPhoto, error) {
	photo, err := c.Locations.DeletePhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	c.InvalidateID(ctx, photo.LocationID)
	return photo, nil
}

// Invalidate drops every key that may hold loc. A nil loc is ignored.
func (c *CachedLocations) Invalidate(loc *models.Location) {
	if loc == nil {
		return
	}
	c.lists.Remove(keyAllLocations)
	c.lists.Remove(keyCategoryPrefix + string(loc.CategoryID))
	c.items.Remove(fmt.Sprintf(keyLocationIDFmt, loc.ID))
	if loc.Slug != "" {
		c.items.Remove(fmt.Sprintf(keyLocationSlugFmt, loc.Slug))
	}
}

// InvalidateID drops the keys of the listing with the given id when only its
// id is known. The listing is reloaded to find its slug and category; if
// that fails both caches are cleared.
func (c *CachedLocations) InvalidateID(ctx context.Context, id uint) {
	c.items.Remove(fmt.Sprintf(keyLocationIDFmt, id))
	loc, err := c.Locations.GetByID(ctx, id)
	if err != nil {
		c.lists.Clear()
		c.items.Clear()
		return
	}
	c.Invalidate(loc)
}

// Stats reports the entries of both caches combined.
func (c *CachedLocations) Stats() cache.Stats {
	l, i := c.lists.Stats(), c.items.Stats()
	return cache.Stats{
		TotalEntries:   l.TotalEntries + i.TotalEntries,
		ActiveEntries:  l.ActiveEntries + i.ActiveEntries,
		ExpiredEntries: l.ExpiredEntries + i.ExpiredEntries,
	}
}

func copyLocations(in []models.Location) []models.Location {
	out := make([]models.Location, len(in))
	copy(out, in)
	return out
}
