package content

import "github.com/alumnihub/alumnihub/internal/tenancy"

// CreateRequest is the payload of POST /content.
type CreateRequest struct {
	Kind       Kind                     `json:"kind" validate:"required,oneof=article event donation listing"`
	Title      string                   `json:"title" validate:"required,max=200"`
	Body       string                   `json:"body" validate:"max=20000"`
	Visibility tenancy.VisibilityPolicy `json:"visibility"`
}
