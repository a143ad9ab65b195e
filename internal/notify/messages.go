package notify

import (
	"fmt"

	"github.com/GTDGit/carniceria_api/internal/models"
	"github.com/GTDGit/carniceria_api/internal/store"
)

// fromAction maps a finished store action to its notification. It returns
// false for transitions that are not shown to the user.
func fromAction(next store.State, a store.Action) (Notification, bool) {
	switch a.Phase {
	case store.PhaseRejected:
		return Error("Datos inválidos: " + a.Err), true
	case store.PhaseFailure:
		msg, ok := failureMessages[a.Kind]
		if !ok {
			return Notification{}, false
		}
		return Error(msg), true
	case store.PhaseSuccess:
		return successFor(next, a)
	default:
		return Notification{}, false
	}
}

var failureMessages = map[store.Kind]string{
	store.KindFetch:        "Error al cargar los productos",
	store.KindToggleStatus: "Error al cambiar el estado del producto",
	store.KindToggleOffer:  "Error al cambiar la oferta del producto",
	store.KindUpdatePrice:  "Error al actualizar el precio",
	store.KindUpdateName:   "Error al actualizar el nombre",
	store.KindUpdateImage:  "Error al actualizar la imagen",
	store.KindDelete:       "Error al eliminar el producto",
	store.KindAdd:          "Error al agregar el producto",
}

func successFor(next store.State, a store.Action) (Notification, bool) {
	p, found := models.FindProduct(next.Products, a.ProductID)

	switch a.Kind {
	case store.KindToggleStatus:
		if !found {
			return Info("Estado del producto actualizado"), true
		}
		state := "desactivado"
		if p.Active {
			state = "activado"
		}
		return Info(fmt.Sprintf("Producto %s %s", p.Name, state)), true
	case store.KindToggleOffer:
		if !found {
			return Info("Oferta actualizada"), true
		}
		if p.Offer {
			return Info(fmt.Sprintf("Producto %s en oferta", p.Name)), true
		}
		return Info(fmt.Sprintf("Producto %s sin oferta", p.Name)), true
	case store.KindUpdatePrice:
		return Success("Precio de producto actualizado"), true
	case store.KindUpdateName:
		return Success("Nombre actualizado"), true
	case store.KindUpdateImage:
		return Success("Imagen actualizada exitosamente"), true
	case store.KindDelete:
		return Success("Producto eliminado"), true
	case store.KindAdd:
		if a.Product != nil {
			return Success(fmt.Sprintf("Producto %s agregado", a.Product.Name)), true
		}
		return Success("Producto agregado"), true
	default:
		// a successful fetch is silent
		return Notification{}, false
	}
}
