package scraper

import "context"

// Session is the part of a browser-automation session the scraping core needs.
// Implementations report a missing element as (false, nil) / ("", nil), not as an error.
type Session interface {
	// Navigate loads url and waits for the document to load.
	Navigate(ctx context.Context, url string) error

	// Visible reports whether the first element matching selector exists and is visible.
	Visible(ctx context.Context, selector string) (bool, error)

	// Text returns the rendered text of the first element matching selector.
	Text(ctx context.Context, selector string) (string, error)

	// HTML returns the current rendered markup of the page.
	HTML(ctx context.Context) (string, error)
}

// LocationSetter sets the delivery location the site uses for its results.
type LocationSetter interface {
	SetLocation(ctx context.Context, bootstrapItem, zip string) error
}
