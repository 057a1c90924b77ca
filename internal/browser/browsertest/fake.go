// Package browsertest provides a scripted in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
)

// FakePage serves fixed HTML per URL and records every call.
type FakePage struct {
	mu sync.Mutex

	// Pages maps a URL to the document served after navigating to it.
	Pages map[string]string
	// Fail maps "navigate <url>", "wait <selector>", "click <selector>" or
	// "html <url>" to an error returned by that call.
	Fail map[string]error
	// OnClick runs after a successful click, e.g. to swap page content.
	OnClick func(p *FakePage, selector string)
	// OnSetValue runs after a successful SetValue.
	OnSetValue func(p *FakePage, selector, value string)
	// OnSubmit runs after a successful Submit.
	OnSubmit func(p *FakePage, selector string)

	PNG []byte

	current string
	calls   []string
}

// New returns a FakePage serving pages.
func New(pages map[string]string) *FakePage {
	return &FakePage{Pages: pages, Fail: map[string]error{}, PNG: []byte("\x89PNG")}
}

func (p *FakePage) record(call string) error {
	p.calls = append(p.calls, call)
	if err, ok := p.Fail[call]; ok {
		return err
	}
	return nil
}

// Calls returns the recorded call log.
func (p *FakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// SetPage replaces the document served for url.
func (p *FakePage) SetPage(url, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Pages[url] = html
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("navigate " + url); err != nil {
		return err
	}
	if _, ok := p.Pages[url]; !ok {
		return fmt.Errorf("navigate %s: no such page", url)
	}
	p.current = url
	return nil
}

func (p *FakePage) WaitVisible(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("wait " + selector)
}

func (p *FakePage) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("html " + p.current); err != nil {
		return "", err
	}
	return p.Pages[p.current], nil
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	if err := p.record("click " + selector); err != nil {
		p.mu.Unlock()
		return err
	}
	hook := p.OnClick
	p.mu.Unlock()
	if hook != nil {
		hook(p, selector)
	}
	return nil
}

func (p *FakePage) SetValue(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	if err := p.record("set " + selector + "=" + value); err != nil {
		p.mu.Unlock()
		return err
	}
	hook := p.OnSetValue
	p.mu.Unlock()
	if hook != nil {
		hook(p, selector, value)
	}
	return nil
}

func (p *FakePage) Submit(ctx context.Context, selector string) error {
	p.mu.Lock()
	if err := p.record("submit " + selector); err != nil {
		p.mu.Unlock()
		return err
	}
	hook := p.OnSubmit
	p.mu.Unlock()
	if hook != nil {
		hook(p, selector)
	}
	return nil
}

func (p *FakePage) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

func (p *FakePage) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("screenshot"); err != nil {
		return nil, err
	}
	return p.PNG, nil
}
