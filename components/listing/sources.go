package listing

import (
	"context"

	"github.com/goliatone/go-rwadmin/pkg/rwapi"
)

// Namespaces of the lists backed by the API.
const (
	NamespaceCollections = "paginated-collections"
	NamespaceDashboards  = "dashboards"
	NamespaceWidgets     = "widgets"
	NamespaceLayers      = "layers"
	NamespaceDatasets    = "datasets"
)

// CollectionsSource pages through the user's collections.
func CollectionsSource(client *rwapi.Client) Source[rwapi.Collection] {
	return adapt(client.FetchCollections)
}

// DashboardsSource pages through dashboards, including their owners.
func DashboardsSource(client *rwapi.Client) Source[rwapi.Dashboard] {
	return adapt(client.FetchDashboards, "user")
}

// WidgetsSource pages through widgets.
func WidgetsSource(client *rwapi.Client) Source[rwapi.Widget] {
	return adapt(client.FetchWidgets)
}

// LayersSource pages through layers.
func LayersSource(client *rwapi.Client) Source[rwapi.Layer] {
	return adapt(client.FetchLayers)
}

// DatasetsSource pages through datasets.
func DatasetsSource(client *rwapi.Client) Source[rwapi.Dataset] {
	return adapt(client.FetchDatasets)
}

func adapt[T any](fetch func(context.Context, rwapi.ListParams) (rwapi.List[T], error), includes ...string) Source[T] {
	return func(ctx context.Context, q Query) (Page[T], error) {
		list, err := fetch(ctx, ParamsFor(q, includes...))
		if err != nil {
			return Page[T]{}, err
		}
		return Page[T]{
			Items: list.Items,
			Meta:  Meta{TotalItems: list.Meta.TotalItems, TotalPages: list.Meta.TotalPages},
		}, nil
	}
}

// ParamsFor converts a list query into API parameters.
func ParamsFor(q Query, includes ...string) rwapi.ListParams {
	return rwapi.ListParams{
		Page:     q.Page,
		PageSize: q.PageSize,
		Filters:  q.Clone().Filters,
		Includes: includes,
	}
}
