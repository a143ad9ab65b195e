package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// CartItem is a product selected in a cart. Quantity is in kilograms.
type CartItem struct {
	Product
	Quantity float64
}

const fieldQuantity = "quantity"

// MarshalJSON writes the product fields plus quantity.
func (ci CartItem) MarshalJSON() ([]byte, error) {
	data, err := ci.Product.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m[fieldQuantity] = ci.Quantity
	return json.Marshal(m)
}

// UnmarshalJSON reads a cart item written by MarshalJSON.
func (ci *CartItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q, _ := raw[fieldQuantity].(float64)
	delete(raw, fieldQuantity)
	ci.Product = Normalize(raw)
	ci.Quantity = q
	return nil
}

// PaymentMethod enumerates the accepted payment methods.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Label returns the customer-facing name of the payment method.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCash:
		return "Efectivo"
	case PaymentCard:
		return "Tarjeta"
	case PaymentTransfer:
		return "Transferencia"
	}
	return string(m)
}

// Valid reports whether m is one of the accepted methods.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentTransfer
}

// CustomerInfo is collected only to compose one order message.
type CustomerInfo struct {
	Name          string        `json:"name"`
	Location      string        `json:"location"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// Validate checks the required order fields.
func (c CustomerInfo) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		return errors.New("location is required")
	}
	if !c.PaymentMethod.Valid() {
		return errors.New("paymentMethod must be 'cash', 'card' or 'transfer'")
	}
	return nil
}
