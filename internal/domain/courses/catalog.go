package courses

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"membership-app/internal/domain/roles"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog owns the persisted course configs and serves resolver snapshots.
// Writes go to Postgres first; the in-memory snapshot is rebuilt afterwards.
type Catalog struct {
	db     *gorm.DB
	policy MissingConfigPolicy

	mu       sync.RWMutex
	configs  []CourseAccessConfig
	resolver *Resolver
}

func NewCatalog(db *gorm.DB, policy MissingConfigPolicy) *Catalog {
	return &Catalog{
		db:       db,
		policy:   policy,
		resolver: NewResolver(nil, policy),
	}
}

// Seed inserts missing default rows and loads the snapshot.
func (c *Catalog) Seed(ctx context.Context, defaults []CourseAccessConfig) error {
	if len(defaults) > 0 {
		if err := c.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&defaults).Error; err != nil {
			return fmt.Errorf("seed course catalog: %w", err)
		}
	}
	return c.Reload(ctx)
}

func (c *Catalog) Reload(ctx context.Context) error {
	var rows []CourseAccessConfig
	if err := c.db.WithContext(ctx).Order("course_id ASC").Find(&rows).Error; err != nil {
		return fmt.Errorf("load course catalog: %w", err)
	}
	c.swap(rows)
	return nil
}

func (c *Catalog) swap(rows []CourseAccessConfig) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].CourseID < rows[j].CourseID })
	r := NewResolver(rows, c.policy)

	c.mu.Lock()
	c.configs = rows
	c.resolver = r
	c.mu.Unlock()
}

func (c *Catalog) Resolver() *Resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolver
}

func (c *Catalog) List() []CourseAccessConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CourseAccessConfig, len(c.configs))
	copy(out, c.configs)
	return out
}

// SetOverride stores an override for courseID and returns the updated row.
func (c *Catalog) SetOverride(ctx context.Context, courseID string, allowed []string, active bool, by uint) (CourseAccessConfig, error) {
	normalized, err := NormalizeOverrideRoles(allowed)
	if err != nil {
		return CourseAccessConfig{}, err
	}
	return c.update(ctx, courseID, by, func(cfg *CourseAccessConfig) {
		cfg.AdminOverride = &AdminOverride{AllowedRoles: normalized, IsOverridden: active}
	})
}

func (c *Catalog) ClearOverride(ctx context.Context, courseID string, by uint) (CourseAccessConfig, error) {
	return c.update(ctx, courseID, by, func(cfg *CourseAccessConfig) {
		cfg.AdminOverride = nil
	})
}

func (c *Catalog) update(ctx context.Context, courseID string, by uint, mutate func(*CourseAccessConfig)) (CourseAccessConfig, error) {
	var cfg CourseAccessConfig
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&cfg, "course_id = ?", courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownCourse
			}
			return err
		}

		mutate(&cfg)
		now := time.Now()
		cfg.OverrideUpdatedAt = &now
		if by != 0 {
			uid := by
			cfg.OverrideUpdatedBy = &uid
		}
		return tx.Save(&cfg).Error
	})
	if err != nil {
		return CourseAccessConfig{}, err
	}

	if err := c.Reload(ctx); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// NormalizeOverrideRoles validates role keys and removes duplicates while
// keeping the caller's order.
func NormalizeOverrideRoles(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[roles.UserRole]bool, len(in))
	for _, s := range in {
		r, ok := roles.Parse(s)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, s)
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, string(r))
	}
	return out, nil
}
