// Package catalog derives what the storefront shows from the Store state.
package catalog

import (
	"sort"
	"strings"

	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/store"
)

const (
	// AllCategories clears the category filter.
	AllCategories = "Todos"
	// Offers is the virtual category of products flagged as on offer.
	Offers = "Ofertas"
)

var sidebar = []string{AllCategories, "Vacuno", "Cerdo", "Pollo", "Embutidos", "Anchuras", "Bebidas", Offers}

// Categories returns the sidebar categories in display order.
func Categories() []string {
	out := make([]string, len(sidebar))
	copy(out, sidebar)
	return out
}

// Sort orders the filtered list. The zero value keeps document order.
type Sort string

const (
	SortNone      Sort = ""
	SortName      Sort = "name"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// Valid reports whether s is a known sort order.
func (s Sort) Valid() bool {
	switch s {
	case SortNone, SortName, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

// Filter selects products for the storefront.
type Filter struct {
	Category        string
	Query           string
	IncludeInactive bool
	Sort            Sort
}

// Status tells the loading, error and no-results states apart.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

// View is the derived catalog.
type View struct {
	Status   Status           `json:"status"`
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
	Error    string           `json:"error,omitempty"`
}

// Derive filters the Store products and resolves the view status.
func Derive(st store.State, f Filter) View {
	products := Apply(st.Products, f)
	v := View{Products: products, Total: len(products), Error: st.Error}

	switch {
	case st.Loading:
		v.Status = StatusLoading
	case st.Error != "" && len(st.Products) == 0:
		v.Status = StatusError
	case len(products) == 0:
		v.Status = StatusEmpty
	default:
		v.Status = StatusReady
	}
	return v
}

// Apply returns the products matching f. Entries without a name or category
// are skipped.
func Apply(products []models.Product, f Filter) []models.Product {
	category := strings.TrimSpace(f.Category)
	if strings.EqualFold(category, AllCategories) {
		category = ""
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if !p.Valid() {
			continue
		}
		if !p.Active && !f.IncludeInactive {
			continue
		}
		if !matchesCategory(p, category) || !matchesText(p, query) {
			continue
		}
		out = append(out, p.Clone())
	}

	sortProducts(out, f.Sort)
	return out
}

// AdminList is the admin table: every product, searched by name only.
func AdminList(products []models.Product, query string) []models.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if query == "" || strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p.Clone())
		}
	}
	return out
}

func matchesCategory(p models.Product, category string) bool {
	switch {
	case category == "":
		return true
	case category == Offers:
		return p.Offer
	default:
		return strings.EqualFold(p.Category, category)
	}
}

func matchesText(p models.Product, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Category), query)
}

func sortProducts(products []models.Product, by Sort) {
	switch by {
	case SortName:
		sort.SliceStable(products, func(i, j int) bool {
			return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
		})
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	}
}
