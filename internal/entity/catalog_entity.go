package entity

import "time"

type Product struct {
	ProductID string
	Name      string
	Synonyms  []string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Catalog is an immutable snapshot of the product list used by one matching run.
type Catalog struct {
	Products []Product
	byID     map[string]int
}

func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		Products: products,
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		c.byID[p.ProductID] = i
	}
	return c
}

func (c *Catalog) Find(productID string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.byID[productID]
	if !ok {
		return Product{}, false
	}
	return c.Products[i], true
}

func (c *Catalog) Contains(productID string) bool {
	_, ok := c.Find(productID)
	return ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Products)
}

type UserAccess struct {
	TelegramUserID int64
	Name           string
	TradePoints    []string
	WorkerID       int64
}
