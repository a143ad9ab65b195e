package models

import (
	"encoding/json"
	"strings"
)

// Product is the canonical catalog entity. Price is always a number once the
// record has gone through Normalize; fields the shop does not know about are
// kept in Extra and written back untouched.
type Product struct {
	ID          string
	Name        string
	Price       float64
	Category    string
	Image       string
	Description string
	Active      bool
	Offer       bool

	Extra map[string]any
}

// Known JSON keys of a product record.
const (
	fieldID          = "id"
	fieldName        = "name"
	fieldPrice       = "price"
	fieldCategory    = "category"
	fieldImage       = "image"
	fieldDescription = "description"
	fieldActive      = "active"
	fieldOffer       = "offer"
)

// MarshalJSON writes the known fields on top of Extra.
func (p Product) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extra)+8)
	for k, v := range p.Extra {
		m[k] = v
	}
	m[fieldID] = p.ID
	m[fieldName] = p.Name
	m[fieldPrice] = p.Price
	m[fieldCategory] = p.Category
	m[fieldImage] = p.Image
	m[fieldActive] = p.Active
	m[fieldOffer] = p.Offer
	if p.Description != "" {
		m[fieldDescription] = p.Description
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes any record shape accepted by Normalize.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Normalize(raw)
	return nil
}

// Valid reports whether the product carries the fields the catalog filters on.
func (p Product) Valid() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Category) != ""
}

// Clone returns a copy that shares nothing mutable with p.
func (p Product) Clone() Product {
	if p.Extra != nil {
		extra := make(map[string]any, len(p.Extra))
		for k, v := range p.Extra {
			extra[k] = v
		}
		p.Extra = extra
	}
	return p
}

// ProductPatch is a partial-field update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Description *string  `json:"description,omitempty"`
	Active      *bool    `json:"active,omitempty"`
	Offer       *bool    `json:"offer,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (pp ProductPatch) Empty() bool {
	return pp.Name == nil && pp.Price == nil && pp.Category == nil && pp.Image == nil &&
		pp.Description == nil && pp.Active == nil && pp.Offer == nil
}

// Apply shallow-merges the patch into a copy of p.
func (pp ProductPatch) Apply(p Product) Product {
	out := p.Clone()
	if pp.Name != nil {
		out.Name = *pp.Name
	}
	if pp.Price != nil {
		out.Price = *pp.Price
	}
	if pp.Category != nil {
		out.Category = *pp.Category
	}
	if pp.Image != nil {
		out.Image = *pp.Image
	}
	if pp.Description != nil {
		out.Description = *pp.Description
	}
	if pp.Active != nil {
		out.Active = *pp.Active
	}
	if pp.Offer != nil {
		out.Offer = *pp.Offer
	}
	return out
}

// ProductDraft is the input for creating a product. Image holds the raw image
// bytes to upload; ImageURL is used as-is when no bytes are given.
type ProductDraft struct {
	Name        string
	Price       float64
	Category    string
	Description string
	Offer       bool
	Image       []byte
	ImageName   string
	ImageURL    string
}

// FindProduct returns the product with the given id.
func FindProduct(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// CloneProducts deep-copies a product list.
func CloneProducts(products []Product) []Product {
	if products == nil {
		return nil
	}
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
