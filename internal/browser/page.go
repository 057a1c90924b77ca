package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Page is the capability set extractors and the login flow drive.
// Every call is bounded by the session's navigation timeout.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	HTML(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	SetValue(ctx context.Context, selector, value string) error
	Submit(ctx context.Context, selector string) error
	Location(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Cookie is the persisted form of a browser cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"` // unix seconds, 0 for session cookies
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// cookiePage is a Page whose cookie jar can be exported and restored.
type cookiePage interface {
	Page
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
}

// cdpPage drives one Chrome tab through chromedp.
type cdpPage struct {
	tab     context.Context
	timeout time.Duration
}

func (p *cdpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(p.tab, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func (p *cdpPage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *cdpPage) WaitVisible(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

func (p *cdpPage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

func (p *cdpPage) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

func (p *cdpPage) SetValue(ctx context.Context, selector, value string) error {
	if err := p.run(ctx, chromedp.SetValue(selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("set value of %q: %w", selector, err)
	}
	return nil
}

func (p *cdpPage) Submit(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Submit(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("submit %q: %w", selector, err)
	}
	return nil
}

func (p *cdpPage) Location(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

func (p *cdpPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// quality 100 yields PNG
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (p *cdpPage) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: string(c.SameSite),
		})
	}
	return cookies, nil
}

func (p *cdpPage) SetCookies(ctx context.Context, cookies []Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: network.CookieSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			param.Expires = &exp
		}
		params = append(params, param)
	}

	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("restore cookies: %w", err)
	}
	return nil
}

var _ cookiePage = (*cdpPage)(nil)
