// Package scrapertest provides an in-memory browser session for tests.
package scrapertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Session serves canned HTML by URL. Unknown URLs serve Fallback.
// Visibility is approximated by presence in the markup.
type Session struct {
	Pages    map[string]string
	Fallback string

	NavigateErr error
	HTMLErr     error
	LocationErr error
	CloseErr    error

	// OnNavigate runs after every successful navigation.
	OnNavigate func(url string)

	mu        sync.Mutex
	current   *goquery.Document
	markup    string
	visited   []string
	locations []string
	closed    int
}

// New returns a Session serving pages.
func New(pages map[string]string) *Session {
	return &Session{Pages: pages}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.visited = append(s.visited, url)
	if s.NavigateErr != nil {
		s.mu.Unlock()
		return s.NavigateErr
	}
	markup, ok := s.Pages[url]
	if !ok {
		markup = s.Fallback
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.current, s.markup = doc, markup
	hook := s.OnNavigate
	s.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	return nil
}

func (s *Session) Visible(ctx context.Context, selector string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false, nil
	}
	return s.current.Find(selector).Length() > 0, nil
}

func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return "", nil
	}
	return s.current.Find(selector).First().Text(), nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.HTMLErr != nil {
		return "", s.HTMLErr
	}
	return s.markup, nil
}

func (s *Session) SetLocation(ctx context.Context, bootstrapItem, zip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = append(s.locations, bootstrapItem+"@"+zip)
	return s.LocationErr
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return s.CloseErr
}

// Visited returns the URLs navigated to, in order.
func (s *Session) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

// Locations returns every SetLocation call as "item@zip".
func (s *Session) Locations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.locations...)
}

// Closed returns how many times Close was called.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Listing is one offer rendered with the default selector layout.
type Listing struct {
	Name      string
	Store     string
	Brand     string
	DateValid string
	// Price is rendered as the per-unit price. When empty, FallbackPrice and
	// Note are rendered instead.
	Price         string
	FallbackPrice string
	Note          string
	// NoName drops the name element.
	NoName bool
}

func (l Listing) render() string {
	var b strings.Builder
	b.WriteString(`<li><div class="offer-details">`)
	if !l.NoName {
		fmt.Fprintf(&b, `<h3 class="title">%s</h3>`, l.Name)
	}
	fmt.Fprintf(&b, `<p class="retailer"><a href="#">%s</a></p>`, l.Store)
	fmt.Fprintf(&b, `<p class="brand"><span>%s</span></p>`, l.Brand)
	fmt.Fprintf(&b, `<p class="validity">%s</p>`, l.DateValid)
	b.WriteString(`</div>`)
	if l.Price != "" {
		fmt.Fprintf(&b, `<div class="offer-footer"><span class="price-per-unit">%s</span></div>`, l.Price)
	} else {
		fmt.Fprintf(&b, `<div class="offer-header"><span class="price">%s</span></div>`, l.FallbackPrice)
		fmt.Fprintf(&b, `<div class="offer-footer"><span class="note">%s</span></div>`, l.Note)
	}
	b.WriteString(`</li>`)
	return b.String()
}

// Page renders a search results page with the given headline, location text and listings.
func Page(headline, location string, listings ...Listing) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	fmt.Fprintf(&b, `<h1 class="headline">%s</h1>`, headline)
	fmt.Fprintf(&b, `<span class="location-text">%s</span>`, location)
	b.WriteString(`<ul class="offers">`)
	for _, l := range listings {
		b.WriteString(l.render())
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}
