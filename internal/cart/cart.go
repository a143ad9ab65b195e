// Package cart holds the shopping cart rules and the WhatsApp order message.
package cart

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/carniceria_api/internal/models"
)

// Step is how many kilograms AddItem adds to a line that already exists.
const Step = 0.5

// Change says what AddItem did.
type Change string

const (
	ChangeAdded       Change = "added"
	ChangeIncremented Change = "incremented"
)

// Outcome describes one AddItem call.
type Outcome struct {
	Change  Change          `json:"change"`
	Item    models.CartItem `json:"item"`
	Message string          `json:"message"`
}

// Cart is an ordered list of lines, at most one per product id.
type Cart struct {
	items []models.CartItem
}

// New creates a cart from stored items.
func New(items []models.CartItem) *Cart {
	c := &Cart{items: make([]models.CartItem, 0, len(items))}
	for _, it := range items {
		if it.Quantity > 0 {
			c.items = append(c.items, it)
		}
	}
	return c
}

// Items returns the lines in insertion order.
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.items) }

// AddItem appends p with quantity 1, or adds Step to its existing line.
func (c *Cart) AddItem(p models.Product) Outcome {
	for i := range c.items {
		if c.items[i].ID == p.ID {
			c.items[i].Quantity += Step
			return Outcome{
				Change:  ChangeIncremented,
				Item:    c.items[i],
				Message: fmt.Sprintf("Se agregaron %skg más de %s", formatQuantity(Step), p.Name),
			}
		}
	}

	item := models.CartItem{Product: p.Clone(), Quantity: 1}
	c.items = append(c.items, item)
	return Outcome{
		Change:  ChangeAdded,
		Item:    item,
		Message: fmt.Sprintf("%s agregado al carrito", p.Name),
	}
}

// SetQuantity sets the quantity of a line. Zero or less removes it. It
// reports whether the line existed.
func (c *Cart) SetQuantity(id string, qty float64) bool {
	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}
		if qty <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		} else {
			c.items[i].Quantity = qty
		}
		return true
	}
	return false
}

// RemoveItem drops the line for id, if any.
func (c *Cart) RemoveItem(id string) {
	c.SetQuantity(id, 0)
}

// Total is the sum of price times quantity over every line.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(LineTotal(it))
	}
	return total
}

// FormattedTotal is Total in es-AR notation.
func (c *Cart) FormattedTotal() string {
	return FormatPrice(c.Total())
}

// LineTotal is price times quantity for one line.
func LineTotal(it models.CartItem) decimal.Decimal {
	return decimal.NewFromFloat(it.Price).Mul(decimal.NewFromFloat(it.Quantity))
}

// ComposeOrderMessage renders the order text sent over WhatsApp.
func (c *Cart) ComposeOrderMessage(info models.CustomerInfo) string {
	var b strings.Builder
	b.WriteString("*Nuevo Pedido*\n\n")
	fmt.Fprintf(&b, "*Cliente:* %s\n", strings.TrimSpace(info.Name))
	fmt.Fprintf(&b, "*Ubicación:* %s\n", strings.TrimSpace(info.Location))
	fmt.Fprintf(&b, "*Método de Pago:* %s\n\n", info.PaymentMethod.Label())
	b.WriteString("*Productos:*\n")
	for _, it := range c.items {
		fmt.Fprintf(&b, "- %s: %skg x $%s = $%s\n",
			it.Name,
			formatQuantity(it.Quantity),
			FormatPrice(decimal.NewFromFloat(it.Price)),
			FormatPrice(LineTotal(it)),
		)
	}
	fmt.Fprintf(&b, "\n*Total:* $%s", c.FormattedTotal())
	return b.String()
}

// WhatsAppLink builds {base}?text={message} with the message percent-encoded.
func WhatsAppLink(base, message string) string {
	return base + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

// FormatPrice renders d with two decimals, "." for thousands and "," for
// decimals, e.g. 18900 -> "18.900,00".
func FormatPrice(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.Sign() < 0 && fixed != "0.00" {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
