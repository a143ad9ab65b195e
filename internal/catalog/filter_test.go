package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/store"
)

func names(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

var fixtures = []models.Product{
	{ID: "1", Name: "Lomo", Category: "vacuno", Price: 18900, Active: true},
	{ID: "2", Name: "Pechuga", Category: "pollo", Price: 6500, Active: false},
	{ID: "3", Name: "Chorizo", Category: "Embutidos", Price: 5200, Active: true, Offer: true},
	{ID: "4", Name: "Asado", Category: "Vacuno", Price: 12000, Active: true, Offer: true},
	{ID: "5", Name: "", Category: "Vacuno", Active: true},
	{ID: "6", Name: "Sin categoría", Category: "", Active: true},
}

func TestApplyOnlyActiveWithoutCategory(t *testing.T) {
	got := Apply([]models.Product{
		{ID: "1", Name: "a", Category: "vacuno", Active: true},
		{ID: "2", Name: "b", Category: "pollo", Active: false},
	}, Filter{})
	require.Len(t, got, 1)
	assert.Equal(t, "vacuno", got[0].Category)
}

func TestApplyCategoryIsCaseInsensitive(t *testing.T) {
	got := Apply(fixtures, Filter{Category: "VACUNO"})
	assert.Equal(t, []string{"Lomo", "Asado"}, names(got))
}

func TestApplyTodosClearsCategory(t *testing.T) {
	got := Apply(fixtures, Filter{Category: AllCategories})
	assert.Equal(t, []string{"Lomo", "Chorizo", "Asado"}, names(got))
}

func TestApplyOffersIgnoresCategoryField(t *testing.T) {
	got := Apply(fixtures, Filter{Category: Offers})
	assert.Equal(t, []string{"Chorizo", "Asado"}, names(got))
}

func TestApplyQueryMatchesNameOrCategory(t *testing.T) {
	assert.Equal(t, []string{"Chorizo"}, names(Apply(fixtures, Filter{Query: "chori"})))
	assert.Equal(t, []string{"Chorizo"}, names(Apply(fixtures, Filter{Query: "EMBUT"})))
	assert.Empty(t, Apply(fixtures, Filter{Query: "cordero"}))
}

func TestApplySkipsInvalidEntries(t *testing.T) {
	got := Apply(fixtures, Filter{IncludeInactive: true})
	assert.Equal(t, []string{"Lomo", "Pechuga", "Chorizo", "Asado"}, names(got))
}

func TestApplySort(t *testing.T) {
	assert.Equal(t, []string{"Asado", "Chorizo", "Lomo"}, names(Apply(fixtures, Filter{Sort: SortName})))
	assert.Equal(t, []string{"Chorizo", "Asado", "Lomo"}, names(Apply(fixtures, Filter{Sort: SortPriceAsc})))
	assert.Equal(t, []string{"Lomo", "Asado", "Chorizo"}, names(Apply(fixtures, Filter{Sort: SortPriceDesc})))
	assert.False(t, Sort("random").Valid())
}

func TestApplyDoesNotAlias(t *testing.T) {
	got := Apply(fixtures, Filter{})
	got[0].Name = "changed"
	assert.Equal(t, "Lomo", fixtures[0].Name)
}

func TestDeriveStatus(t *testing.T) {
	t.Run("Loading", func(t *testing.T) {
		v := Derive(store.State{Loading: true}, Filter{})
		assert.Equal(t, StatusLoading, v.Status)
	})

	t.Run("Error", func(t *testing.T) {
		v := Derive(store.State{Products: []models.Product{}, Error: "network"}, Filter{})
		assert.Equal(t, StatusError, v.Status)
		assert.Equal(t, "network", v.Error)
	})

	t.Run("ErrorWithLastGoodSnapshot", func(t *testing.T) {
		v := Derive(store.State{Products: fixtures, Error: "network"}, Filter{})
		assert.Equal(t, StatusReady, v.Status)
		assert.Equal(t, 3, v.Total)
	})

	t.Run("Empty", func(t *testing.T) {
		v := Derive(store.State{Products: fixtures}, Filter{Query: "cordero"})
		assert.Equal(t, StatusEmpty, v.Status)
		assert.NotNil(t, v.Products)
	})

	t.Run("Ready", func(t *testing.T) {
		v := Derive(store.State{Products: fixtures}, Filter{Category: Offers})
		assert.Equal(t, StatusReady, v.Status)
		assert.Equal(t, 2, v.Total)
	})
}

func TestAdminListSearchesNameOnly(t *testing.T) {
	assert.Len(t, AdminList(fixtures, ""), len(fixtures))
	assert.Equal(t, []string{"Pechuga"}, names(AdminList(fixtures, "pech")))
	assert.Empty(t, AdminList(fixtures, "pollo"))
}

func TestCategoriesEndWithOffers(t *testing.T) {
	cats := Categories()
	assert.Equal(t, AllCategories, cats[0])
	assert.Equal(t, Offers, cats[len(cats)-1])
	cats[0] = "x"
	assert.Equal(t, AllCategories, Categories()[0])
}
