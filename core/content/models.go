package content

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Content kinds
const (
	KindDocument = "DOCUMENT"
	KindVideo    = "VIDEO"
	KindAudio    = "AUDIO"
	KindLink     = "LINK"
)

// Content is a study material item sessions can be run against.
type Content struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	URI         string    `json:"uri"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewContent contains information needed to register a new Content item.
type NewContent struct {
	Title       string `json:"title" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=DOCUMENT VIDEO AUDIO LINK"`
	URI         string `json:"uri" validate:"required,uri"`
	Description string `json:"description"`
}

func (nc *NewContent) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.URI = core.CleanString(nc.URI)
	return validate.Struct(nc)
}
