package scraper

import (
	"context"
	"errors"
	"sync"
)

type fakePage struct {
	mu sync.Mutex

	heights      []interface{}
	sectionFound interface{}
	html         string

	navigateErr error
	contentErr  error
	heightErr   error
	panicOn     string

	measurements int
	scrolls      int
	closed       int
	navigated    string
}

func newFakePage(html string, heights ...interface{}) *fakePage {
	return &fakePage{heights: heights, sectionFound: true, html: html}
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = url
	return p.navigateErr
}

func (p *fakePage) Evaluate(_ context.Context, script string, _ ...interface{}) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.panicOn == script {
		panic("boom")
	}

	switch script {
	case scriptHeight:
		if p.heightErr != nil {
			return nil, p.heightErr
		}
		i := p.measurements
		if i >= len(p.heights) {
			i = len(p.heights) - 1
		}
		p.measurements++
		return p.heights[i], nil
	case scriptScrollBottom:
		p.scrolls++
		return nil, nil
	case scriptScrollInto:
		return p.sectionFound, nil
	}
	return nil, errors.New("unexpected script")
}

func (p *fakePage) Content(context.Context) (string, error) {
	return p.html, p.contentErr
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func openerFor(page Page) Opener {
	return OpenerFunc(func(context.Context) (Page, error) {
		return page, nil
	})
}

// growing returns heights that increase n times and then repeat the last value.
func growing(n int) []interface{} {
	heights := make([]interface{}, 0, n+2)
	for i := 0; i <= n; i++ {
		heights = append(heights, 1000+i*500)
	}
	return append(heights, 1000+n*500)
}
