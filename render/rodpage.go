package render

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// rodCrawlPage adapts a rod page to the crawlPage surface. Element
// queries, scrolls and HTML captures are bounded by the per-interaction
// timeout; WaitLoad runs under the navigation timeout because it
// follows a pagination click.
type rodCrawlPage struct {
	page       *rod.Page
	interact   time.Duration
	navTimeout time.Duration
}

func newRodCrawlPage(page *rod.Page, interact, navTimeout time.Duration) *rodCrawlPage {
	return &rodCrawlPage{page: page, interact: interact, navTimeout: navTimeout}
}

func (r *rodCrawlPage) bound(ctx context.Context) *rod.Page {
	return r.page.Context(ctx).Timeout(r.interact)
}

func (r *rodCrawlPage) Elements(ctx context.Context, selector string) ([]crawlElement, error) {
	els, err := r.bound(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]crawlElement, len(els))
	for i, el := range els {
		out[i] = &rodCrawlElement{el: el, timeout: r.interact}
	}
	return out, nil
}

func (r *rodCrawlPage) ScrollToBottom(ctx context.Context) error {
	_, err := r.bound(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (r *rodCrawlPage) WaitLoad(ctx context.Context) error {
	return r.page.Context(ctx).Timeout(r.navTimeout).WaitDOMStable(300*time.Millisecond, 0.1)
}

func (r *rodCrawlPage) HTML(ctx context.Context) (string, error) {
	return r.bound(ctx).HTML()
}

// rodCrawlElement wraps a rod element, binding each click to the
// per-interaction timeout.
type rodCrawlElement struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *rodCrawlElement) Text() string {
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return text
}

func (e *rodCrawlElement) Attr(name string) (string, bool) {
	val, err := e.el.Attribute(name)
	if err != nil || val == nil {
		return "", false
	}
	return *val, true
}

func (e *rodCrawlElement) Click(ctx context.Context) error {
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.el.Context(tctx).Click(proto.InputMouseButtonLeft, 1)
}
