// Package projection maintains the read-side project catalog used for
// discovery listings. The catalog is fed best-effort by the write path;
// listings may briefly trail the aggregates and that is acceptable.
package projection

import (
	"context"
	"sort"
	"sync"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
)

// Summary is the catalog's view of one project.
type Summary struct {
	ID          id.ProjectID         `json:"id"`
	Admin       id.AccountID         `json:"admin"`
	Goal        int64                `json:"goal"`
	Raised      int64                `json:"raised"`
	Status      models.ProjectStatus `json:"status"`
	MetadataRef id.ContentHash       `json:"metadata_ref"`
	DonorCount  int                  `json:"donor_count"`
}

// Filter narrows a listing. Zero values mean no constraint.
type Filter struct {
	Status  models.ProjectStatus
	Admin   id.AccountID
	MinGoal int64
}

// Page controls listing pagination.
type Page struct {
	Offset int
	Limit  int
}

// Catalog is the in-memory read model.
type Catalog struct {
	mu      sync.RWMutex
	entries map[id.ProjectID]Summary
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[id.ProjectID]Summary)}
}

// ProjectCreated registers a new project in the catalog.
func (c *Catalog) ProjectCreated(ctx context.Context, project *models.Project) error {
	return c.upsert(project)
}

// ProjectUpdated refreshes a project's catalog entry after any mutation.
func (c *Catalog) ProjectUpdated(ctx context.Context, project *models.Project) error {
	return c.upsert(project)
}

func (c *Catalog) upsert(project *models.Project) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[project.ID] = Summary{
		ID:          project.ID,
		Admin:       project.Admin,
		Goal:        project.Goal,
		Raised:      project.Raised,
		Status:      project.Status,
		MetadataRef: project.MetadataRef,
		DonorCount:  len(project.DonorOrder),
	}
	return nil
}

// List returns matching projects ordered by id ascending, paginated. A zero
// limit means no cap.
func (c *Catalog) List(ctx context.Context, filter Filter, page Page) ([]Summary, error) {
	c.mu.RLock()
	matched := make([]Summary, 0, len(c.entries))
	for _, summary := range c.entries {
		if filter.Status != "" && summary.Status != filter.Status {
			continue
		}
		if !filter.Admin.IsNil() && summary.Admin != filter.Admin {
			continue
		}
		if summary.Goal < filter.MinGoal {
			continue
		}
		matched = append(matched, summary)
	}
	c.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if page.Offset >= len(matched) {
		return []Summary{}, nil
	}
	matched = matched[page.Offset:]
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}
	return matched, nil
}

// Get returns one catalog entry.
func (c *Catalog) Get(ctx context.Context, projectID id.ProjectID) (Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	summary, ok := c.entries[projectID]
	return summary, ok
}
