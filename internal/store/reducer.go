package store

import "github.com/GTDGit/carniceria_api/internal/models"

// State is the Store's snapshot. Products is only ever replaced wholesale.
//
// Loading stays true while any action is in flight. Error keeps the last
// failure until the next successful action.
type State struct {
	Products []models.Product `json:"products"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`

	inflight int
	mutated  uint64 // Done stamp of the last applied mutation
}

// Status names the state the way the catalog and admin views consume it.
func (s State) Status() string {
	switch {
	case s.Loading:
		return "loading"
	case s.Error != "":
		return "error"
	default:
		return "ready"
	}
}

// Reduce is the pure transition function of the Store.
func Reduce(s State, a Action) State {
	switch a.Phase {
	case PhaseStart:
		s.inflight++
		s.Loading = true

	case PhaseSuccess:
		s.inflight = finish(s.inflight)
		s.Loading = s.inflight > 0
		s.Error = ""
		// A mutation result is always the server's latest snapshot. A fetch
		// that started before a mutation was applied may have read the
		// document before that mutation's PUT, so it is dropped.
		if a.Kind.IsMutation() {
			if a.Done > s.mutated {
				s.mutated = a.Done
			}
		} else if a.Seq < s.mutated {
			return s
		}
		s.Products = models.CloneProducts(a.Products)
		if s.Products == nil {
			s.Products = []models.Product{}
		}

	case PhaseFailure:
		s.inflight = finish(s.inflight)
		s.Loading = s.inflight > 0
		s.Error = a.Err

	case PhaseRejected:
		// validation happens before the store is touched
	}
	return s
}

func finish(n int) int {
	if n > 0 {
		return n - 1
	}
	return 0
}
