package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrInvalidPrice is returned when a price cannot be read as a finite number.
var ErrInvalidPrice = errors.New("invalid price")

// Normalize coerces a raw remote record into a Product.
//
//   - a missing id gets a fresh UUID, a numeric id is stringified
//   - a string price loses its "." thousands separators and is parsed as a float
//   - active defaults to true, offer to false
//   - unknown fields land in Extra
//
// A price that cannot be parsed becomes 0 and is logged as a data-shape warning.
func Normalize(raw map[string]any) Product {
	p := Product{Active: true}

	for k, v := range raw {
		switch k {
		case fieldID:
			p.ID = stringID(v)
		case fieldName:
			p.Name = asString(v)
		case fieldPrice:
			price, err := ParsePrice(v)
			if err != nil {
				log.Warn().Err(err).Interface("id", raw[fieldID]).Interface("price", v).Msg("Unparseable product price, using 0")
			}
			p.Price = price
		case fieldCategory:
			p.Category = asString(v)
		case fieldImage:
			p.Image = asString(v)
		case fieldDescription:
			p.Description = asString(v)
		case fieldActive:
			p.Active = asBool(v, true)
		case fieldOffer:
			p.Offer = asBool(v, false)
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]any)
			}
			p.Extra[k] = v
		}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p
}

// NormalizeAll normalizes every record, skipping null entries.
func NormalizeAll(records []map[string]any) []Product {
	products := make([]Product, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		products = append(products, Normalize(r))
	}
	return products
}

// ParsePrice reads a price from its remote or form representation. Strings use
// "." as the thousands separator, so "18.900" is 18900; a "," is read as the
// decimal mark ("18.900,50" is 18900.5).
func ParsePrice(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, t.String())
		}
		f = n
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
		if s == "" {
			return 0, fmt.Errorf("%w: empty", ErrInvalidPrice)
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, t)
		}
		f = n
	case nil:
		return 0, fmt.Errorf("%w: missing", ErrInvalidPrice)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidPrice, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: not finite", ErrInvalidPrice)
	}
	return f, nil
}

func stringID(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asBool(v any, def bool) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}
