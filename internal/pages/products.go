package pages

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

var (
	productsSearch       = domain.ID("searchBox")
	productsSearchAlt    = domain.Name("search")
	productsSearchButton = domain.ID("searchButton")
	productsItem         = domain.Class("product-item")
	productsTitle        = domain.Class("product-title")
	productsPrice        = domain.Class("product-price")
	productsCategory     = domain.Class("product-category")
	productsBrand        = domain.Class("product-brand")
	productsApply        = domain.ID("applyFilters")
	productsClear        = domain.ID("clearFilters")
	productsFilterCount  = domain.Class("filter-count")
	productsSort         = domain.ID("sortBy")
	productsNext         = domain.Class("pagination-next")
	productsPrev         = domain.Class("pagination-prev")
	productsPageNumber   = domain.Class("pagination-number")
	productsAddToCart    = domain.Class("add-to-cart")
	productsCartIcon     = domain.ID("cartIcon")
	productsNoResults    = domain.Class("no-results")

	productsFilters = map[string]domain.Locator{
		"category":    domain.ID("categoryFilter"),
		"price_range": domain.ID("priceFilter"),
		"brand":       domain.ID("brandFilter"),
		"rating":      domain.ID("ratingFilter"),
	}

	// SortLabels maps sort keys to the labels of the sort dropdown.
	SortLabels = map[string]string{
		"price_low_to_high": "Price: Low to High",
		"price_high_to_low": "Price: High to Low",
		"name_a_to_z":       "Name: A to Z",
		"name_z_to_a":       "Name: Z to A",
		"newest":            "Newest First",
		"rating":            "Highest Rated",
	}

	priceRe = regexp.MustCompile(`[\d,]+\.?\d*`)
)

// ParsePrice extracts the first amount from text such as "$1,299.99".
func ParsePrice(text string) (float64, bool) {
	m := priceRe.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

type Products struct {
	Base
}

func NewProducts(base Base) *Products { return &Products{Base: base} }

func (p *Products) Open(ctx context.Context) error {
	return p.Base.Open(ctx, "/products")
}

func (p *Products) IsLoaded(ctx context.Context) bool {
	return p.Visible(ctx, productsSearch) || p.Visible(ctx, productsItem) || p.URLContains(ctx, "products")
}

func (p *Products) Search(ctx context.Context, term string) error {
	p.log.Info("products.search", "term", term)
	loc := productsSearch
	if !p.Present(ctx, loc) {
		loc = productsSearchAlt
	}
	if err := p.Type(ctx, loc, term); err != nil {
		return err
	}
	if p.Present(ctx, productsSearchButton) {
		if err := p.Click(ctx, productsSearchButton); err != nil {
			return err
		}
	} else if err := p.PressEnter(ctx, loc); err != nil {
		return err
	}
	p.WaitForResults(ctx)
	return nil
}

// WaitForResults waits for either products or the empty-results notice.
func (p *Products) WaitForResults(ctx context.Context) {
	p.WaitForPageLoad(ctx)
	if p.Visible(ctx, productsItem) || p.Visible(ctx, productsNoResults) {
		return
	}
	p.log.Warn("products.results.timeout")
}

func (p *Products) Count(ctx context.Context) int {
	return p.Base.Count(ctx, productsItem)
}

func (p *Products) NoResults(ctx context.Context) bool {
	return p.Visible(ctx, productsNoResults)
}

// Displayed reads every product card currently listed.
func (p *Products) Displayed(ctx context.Context) ([]domain.ProductCard, error) {
	const op = "pages.products.displayed"
	n := p.Count(ctx)
	cards := make([]domain.ProductCard, 0, n)
	for i := 0; i < n; i++ {
		card := domain.ProductCard{Index: i}
		fields := []struct {
			loc      domain.Locator
			dst      *string
			fallback string
		}{
			{productsTitle, &card.Title, ""},
			{productsPrice, &card.PriceText, ""},
			{productsCategory, &card.Category, "Unknown"},
			{productsBrand, &card.Brand, "Unknown"},
		}
		for _, f := range fields {
			loc, err := child(op, productsItem, i, f.loc)
			if err != nil {
				return nil, err
			}
			*f.dst = p.TextOr(ctx, loc, f.fallback)
		}
		card.Price, _ = ParsePrice(card.PriceText)
		cards = append(cards, card)
	}
	return cards, nil
}

func (p *Products) Prices(ctx context.Context) ([]float64, error) {
	cards, err := p.Displayed(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Price)
	}
	return out, nil
}

func (p *Products) OpenFirst(ctx context.Context) (*ProductDetail, error) {
	return p.OpenByIndex(ctx, 0)
}

func (p *Products) OpenByIndex(ctx context.Context, i int) (*ProductDetail, error) {
	const op = "pages.products.open_by_index"
	n := p.Count(ctx)
	if i < 0 || i >= n {
		return nil, &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: productsItem.String(),
			Err: fmt.Errorf("product index %d out of range (%d listed)", i, n)}
	}
	loc, err := child(op, productsItem, i, productsTitle)
	if err != nil {
		return nil, err
	}
	if err := p.Click(ctx, loc); err != nil {
		return nil, err
	}
	p.WaitForPageLoad(ctx)
	return NewProductDetail(p.Base), nil
}

// OpenByTitle opens the first product whose title contains title,
// ignoring case.
func (p *Products) OpenByTitle(ctx context.Context, title string) (*ProductDetail, error) {
	cards, err := p.Displayed(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Title), strings.ToLower(title)) {
			return p.OpenByIndex(ctx, c.Index)
		}
	}
	return nil, &domain.OpError{Op: "pages.products.open_by_title", Kind: domain.KindNotFound, Path: title,
		Err: fmt.Errorf("no product titled %q", title)}
}

// ApplyFilter selects value in the filter named kind and applies it.
func (p *Products) ApplyFilter(ctx context.Context, kind, value string) error {
	loc, ok := productsFilters[normalizeField(kind)]
	if !ok {
		return &domain.OpError{Op: "pages.products.apply_filter", Kind: domain.KindInvalidConfig, Path: kind,
			Err: fmt.Errorf("unknown filter %q", kind)}
	}
	p.log.Info("products.filter", "filter", kind, "value", value)
	if err := p.Select(ctx, loc, value); err != nil {
		return err
	}
	if p.Present(ctx, productsApply) {
		if err := p.Click(ctx, productsApply); err != nil {
			return err
		}
	}
	p.WaitForResults(ctx)
	return nil
}

func (p *Products) ClearFilters(ctx context.Context) error {
	if err := p.Click(ctx, productsClear); err != nil {
		return err
	}
	p.WaitForResults(ctx)
	return nil
}

// Sort accepts a sort key such as "price_low_to_high" or a dropdown label.
func (p *Products) Sort(ctx context.Context, option string) error {
	label := option
	if l, ok := SortLabels[normalizeField(option)]; ok {
		label = l
	}
	p.log.Info("products.sort", "option", label)
	if err := p.Select(ctx, productsSort, label); err != nil {
		return err
	}
	p.WaitForResults(ctx)
	return nil
}

func (p *Products) FilterCount(ctx context.Context) string {
	return p.TextOr(ctx, productsFilterCount, "")
}

func (p *Products) FilterCountVisible(ctx context.Context) bool {
	return p.Visible(ctx, productsFilterCount)
}

func (p *Products) AddToCartByIndex(ctx context.Context, i int) error {
	loc, err := child("pages.products.add_to_cart", productsItem, i, productsAddToCart)
	if err != nil {
		return err
	}
	return p.Click(ctx, loc)
}

func (p *Products) GoToCart(ctx context.Context) (*Cart, error) {
	if err := p.Click(ctx, productsCartIcon); err != nil {
		return nil, err
	}
	p.WaitForPageLoad(ctx)
	return NewCart(p.Base), nil
}

func (p *Products) NextPage(ctx context.Context) error {
	if err := p.Click(ctx, productsNext); err != nil {
		return err
	}
	p.WaitForResults(ctx)
	return nil
}

func (p *Products) PrevPage(ctx context.Context) error {
	if err := p.Click(ctx, productsPrev); err != nil {
		return err
	}
	p.WaitForResults(ctx)
	return nil
}

// GoToPage clicks the pagination link labelled n.
func (p *Products) GoToPage(ctx context.Context, n int) error {
	want := strconv.Itoa(n)
	texts, err := p.b.Texts(ctx, productsPageNumber)
	if err != nil {
		return err
	}
	for i, t := range texts {
		if strings.TrimSpace(t) != want {
			continue
		}
		loc, err := nth("pages.products.go_to_page", productsPageNumber, i)
		if err != nil {
			return err
		}
		if err := p.Click(ctx, loc); err != nil {
			return err
		}
		p.WaitForResults(ctx)
		return nil
	}
	return &domain.OpError{Op: "pages.products.go_to_page", Kind: domain.KindNotFound, Path: want,
		Err: fmt.Errorf("page %d not in pagination", n)}
}
