package store

import (
	"strings"

	"github.com/GTDGit/carniceria_api/internal/models"
)

// Kind identifies what an action is about.
type Kind string

const (
	KindFetch        Kind = "FETCH_PRODUCTS"
	KindToggleStatus Kind = "TOGGLE_PRODUCT_STATUS"
	KindToggleOffer  Kind = "TOGGLE_PRODUCT_OFFER"
	KindUpdatePrice  Kind = "UPDATE_PRODUCT_PRICE"
	KindUpdateName   Kind = "UPDATE_PRODUCT_NAME"
	KindUpdateImage  Kind = "UPDATE_PRODUCT_IMAGE"
	KindDelete       Kind = "DELETE_PRODUCT"
	KindAdd          Kind = "ADD_PRODUCT"
)

// IsMutation reports whether actions of this kind write to the document.
func (k Kind) IsMutation() bool {
	return k != KindFetch
}

// Phase is where an action is in its lifecycle.
type Phase string

const (
	PhaseStart   Phase = "START"
	PhaseSuccess Phase = "SUCCESS"
	PhaseFailure Phase = "FAILURE"
	// PhaseRejected marks input that failed validation before any network call.
	PhaseRejected Phase = "REJECTED"
)

// Action is one state transition request.
type Action struct {
	Kind      Kind
	Phase     Phase
	Seq       uint64 // taken when the action starts
	Done      uint64 // taken when a success is dispatched
	ProductID string
	Products  []models.Product // full server list on success
	Product   *models.Product  // created product for ADD_PRODUCT
	Err       string
}

// Type returns the action name, e.g. TOGGLE_PRODUCT_STATUS_SUCCESS.
// Rejected inputs all share VALIDATION_FAILED.
func (a Action) Type() string {
	if a.Phase == PhaseRejected {
		return "VALIDATION_FAILED"
	}
	return string(a.Kind) + "_" + string(a.Phase)
}

// DedupKey identifies repeated notifications for the same outcome of the
// same intent. A rejection never hides the success that follows it.
func (a Action) DedupKey() string {
	key := strings.ToLower(string(a.Kind)) + ":" + strings.ToLower(string(a.Phase))
	if a.ProductID == "" {
		return key
	}
	return key + ":" + a.ProductID
}
