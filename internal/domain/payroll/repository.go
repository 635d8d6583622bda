package payroll

import "context"

// CatalogRepository loads every stored configuration version.
// The engine selects versions by pay date, so implementations return history as well.
type CatalogRepository interface {
	LoadCatalog(ctx context.Context) (Catalog, error)
}
