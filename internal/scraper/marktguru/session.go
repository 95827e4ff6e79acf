// Package marktguru drives a Chrome session against the marktguru search pages.
package marktguru

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"FlyerScraper/internal/models"
	"FlyerScraper/internal/scraper"
	"FlyerScraper/pkg/config"
	"FlyerScraper/utils"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/mazen160/go-random"
)

const (
	locationTimeout = 15 * time.Second
	consentRootID   = "usercentrics-root"
	locationButton  = ".location-default-text"
	keyPause        = 300 * time.Millisecond
)

// Session is one Chrome instance with a single stealth tab.
// It is owned by exactly one run and must be closed by it.
type Session struct {
	site   config.SiteConfig
	logger *slog.Logger

	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	pid        int
	profileDir string
	ownProfile bool

	closeOnce sync.Once
	closeErr  error
}

// Launch starts Chrome and opens a stealth tab with a user agent picked from
// the configured pool.
func Launch(ctx context.Context, bc config.BrowserConfig, site config.SiteConfig, logger *slog.Logger) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &Session{site: site, logger: logger.With("component", "browser")}

	s.profileDir = bc.UserDataDir
	if s.profileDir == "" {
		dir, err := os.MkdirTemp("", "flyerscraper-profile-*")
		if err != nil {
			return nil, &models.SessionError{Op: "launch", Err: err}
		}
		s.profileDir, s.ownProfile = dir, true
	}

	l := launcher.New().
		Context(ctx).
		Headless(bc.Headless).
		UserDataDir(s.profileDir).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("window-size", "1920,1080")
	if bc.Headless {
		l = l.Set("disable-gpu").Set("disable-dev-shm-usage").Set("no-sandbox")
	}
	if bc.Bin != "" {
		l = l.Bin(bc.Bin)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}
	s.launcher = l

	controlURL, err := l.Launch()
	if err != nil {
		s.removeProfile()
		return nil, s.wrap(ctx, "launch", err)
	}
	s.pid = l.PID()

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.teardown()
		return nil, &models.SessionError{Op: "connect", Err: err}
	}

	s.page, err = stealth.Page(s.browser)
	if err != nil {
		s.teardown()
		return nil, &models.SessionError{Op: "open tab", Err: err}
	}

	if len(bc.UserAgents) > 0 {
		ua := random.ChoiceInsecure(bc.UserAgents)
		if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			s.logger.Warn("failed to set user agent", "error", err)
		} else {
			s.logger.Debug("user agent set", "user_agent", ua)
		}
	}

	s.logger.Info("browser ready", "pid", s.pid, "headless", bc.Headless, "profile", s.profileDir)
	return s, nil
}

func (s *Session) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &models.SessionError{Op: op, Err: err}
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return s.wrap(ctx, "navigate", err)
	}
	if err := p.WaitLoad(); err != nil {
		return s.wrap(ctx, "navigate", err)
	}
	return nil
}

// Visible reports whether the first match of selector is rendered visibly.
func (s *Session) Visible(ctx context.Context, selector string) (bool, error) {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return false, s.wrap(ctx, "query", err)
	}
	if !has {
		return false, nil
	}
	visible, err := el.Visible()
	if err != nil {
		// The node was replaced between lookup and check; poll again.
		return false, nil
	}
	return visible, nil
}

// Text returns the rendered text of the first match of selector.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return "", s.wrap(ctx, "query", err)
	}
	if !has {
		return "", nil
	}
	text, err := el.Text()
	if err != nil {
		return "", s.wrap(ctx, "read text", err)
	}
	return text, nil
}

// HTML returns the current document markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", s.wrap(ctx, "read page", err)
	}
	return html, nil
}

// SetLocation enters zip in the location dialog, starting from the results
// page of bootstrapItem. The consent overlay is removed first since it
// covers the dialog.
func (s *Session) SetLocation(ctx context.Context, bootstrapItem, zip string) error {
	fail := func(step string, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &models.LocationError{ZIP: zip, Err: fmt.Errorf("%s: %w", step, err)}
	}

	if err := s.Navigate(ctx, scraper.PageURL(s.site.SearchURL, bootstrapItem, 0)); err != nil {
		return fail("open search page", err)
	}
	p := s.page.Context(ctx).Timeout(locationTimeout)

	if _, err := p.Eval(`(id) => { const el = document.getElementById(id); if (el) el.remove(); }`, consentRootID); err != nil {
		s.logger.Debug("consent overlay not removed", "error", err)
	}

	button, err := p.Element(locationButton)
	if err != nil {
		return fail("find location button", err)
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fail("open location dialog", err)
	}

	// The dialog's ZIP field is the second input on the page.
	field, err := scraper.Poll(ctx, locationTimeout, 250*time.Millisecond, "location input",
		func(context.Context) (*rod.Element, bool, error) {
			inputs, err := p.Elements("input")
			if err != nil || len(inputs) < 2 {
				return nil, false, nil
			}
			return inputs[1], true, nil
		})
	if err != nil {
		return fail("find location input", err)
	}
	if err := field.Input(zip); err != nil {
		return fail("type zip", err)
	}

	// Confirm, then accept the first suggestion.
	for _, key := range []input.Key{input.Enter, input.ArrowDown, input.Enter} {
		if err := p.Keyboard.Press(key); err != nil {
			return fail("confirm location", err)
		}
		if err := scraper.Sleep(ctx, keyPause); err != nil {
			return err
		}
	}
	if err := p.WaitStable(time.Second); err != nil {
		s.logger.Debug("page did not settle after setting location", "error", err)
	}

	s.logger.Info("location set", "zip", zip)
	return nil
}

// Close shuts the browser down. If Chrome does not exit cleanly its process
// tree is killed. A throwaway profile directory is removed afterwards.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.teardown()
	})
	return s.closeErr
}

func (s *Session) teardown() error {
	var errs []error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
			if s.pid > 0 {
				if err := utils.KillProcessTree(s.logger, s.pid); err != nil {
					errs = append(errs, err)
				}
			}
		}
	} else if s.launcher != nil {
		s.launcher.Kill()
	}
	if err := s.removeProfile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) removeProfile() error {
	if !s.ownProfile || s.profileDir == "" {
		return nil
	}
	// Chrome may still hold files briefly after exit.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = os.RemoveAll(s.profileDir); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("remove profile dir: %w", err)
}
