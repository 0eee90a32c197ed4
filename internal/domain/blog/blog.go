package blog

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("blog not found")

type Blog struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        string    `json:"tags"`
	AuthorEmail string    `json:"authorEmail"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TagList accepts either a JSON array of strings or an already-joined
// string and normalizes both to the comma-joined stored representation.
// Commas inside a single tag corrupt that representation; callers get
// exactly what the storage format can carry.
type TagList string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var asString string

	if err := json.Unmarshal(data, &asString); err == nil {
		*t = TagList(asString)
		return nil
	}

	var asSlice []string

	if err := json.Unmarshal(data, &asSlice); err != nil {
		return errors.New("tags must be a string or an array of strings")
	}

	*t = TagList(strings.Join(asSlice, ","))
	return nil
}

func (t TagList) String() string {
	return string(t)
}

type CreateRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"required,min=1"`
	Tags        TagList `json:"tags"`
}

// UpdateRequest carries a partial update. Empty strings mean "not
// provided" on this resource, so plain fields (not pointers) carry
// that semantics.
type UpdateRequest struct {
	Title       string   `json:"title" binding:"omitempty,min=1,max=200"`
	Description string   `json:"description"`
	Tags        *TagList `json:"tags"`
}

func (r UpdateRequest) Empty() bool {
	return r.Title == "" && r.Description == "" && r.Tags == nil
}
