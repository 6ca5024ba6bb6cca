package branches

import (
	"fmt"
	"time"

	"github.com/alumnihub/alumnihub/internal/platform/httpx"
)

// Branch is a tenant of the organisation, e.g. a regional chapter.
type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound  = fmt.Errorf("branches: branch %w", httpx.ErrNotFound)
	ErrNameTaken = fmt.Errorf("branches: name already in use: %w", httpx.ErrConflict)
)
