package rwapi

import "encoding/json"

// Meta is the pagination metadata reported by the API. Fields are nil when the
// response omits them.
type Meta struct {
	TotalItems *int `json:"total-items,omitempty"`
	TotalPages *int `json:"total-pages,omitempty"`
	Size       *int `json:"size,omitempty"`
}

// ListParams narrows a list request.
type ListParams struct {
	Page     int
	PageSize int
	Filters  map[string]string
	Includes []string
}

// List is one page of decoded resources.
type List[T any] struct {
	Items []T
	Meta  Meta
}

// User is the owner relationship embedded with includes=user.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// CollectionResource is an item saved in a collection.
type CollectionResource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Collection is a user-space group of favourite resources.
type Collection struct {
	ID        string               `json:"-"`
	Name      string               `json:"name"`
	OwnerID   string               `json:"ownerId,omitempty"`
	Resources []CollectionResource `json:"resources,omitempty"`
}

// Dashboard is a published page of widgets.
type Dashboard struct {
	ID        string `json:"-"`
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	Published bool   `json:"published"`
	UserID    string `json:"user-id,omitempty"`
	User      *User  `json:"user,omitempty"`
}

// Widget is a dataset visualization.
type Widget struct {
	ID                    string         `json:"-"`
	Name                  string         `json:"name"`
	Dataset               string         `json:"dataset"`
	Description           string         `json:"description,omitempty"`
	Env                   string         `json:"env,omitempty"`
	Published             bool           `json:"published"`
	Default               bool           `json:"default"`
	DefaultEditableWidget bool           `json:"defaultEditableWidget"`
	Freeze                bool           `json:"freeze"`
	WidgetConfig          map[string]any `json:"widgetConfig,omitempty"`
}

// Layer is a map layer definition.
type Layer struct {
	ID           string         `json:"-"`
	Name         string         `json:"name"`
	Dataset      string         `json:"dataset"`
	Provider     string         `json:"provider"`
	Description  string         `json:"description,omitempty"`
	Default      bool           `json:"default"`
	LayerConfig  map[string]any `json:"layerConfig,omitempty"`
	LegendConfig map[string]any `json:"legendConfig,omitempty"`
}

// Dataset is a data source registered in the API.
type Dataset struct {
	ID           string   `json:"-"`
	Name         string   `json:"name"`
	Provider     string   `json:"provider"`
	ConnectorURL string   `json:"connectorUrl,omitempty"`
	Application  []string `json:"application,omitempty"`
	Published    bool     `json:"published"`
	Subscribable bool     `json:"subscribable,omitempty"`
}

type resource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
}

type listDocument struct {
	Data []resource `json:"data"`
	Meta Meta       `json:"meta"`
}

type itemDocument struct {
	Data resource `json:"data"`
}
