// Package crawl walks the same-host links of a site through a browser
// session, breadth first.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/raysh454/httpbrowser/internal/browser"
	"github.com/raysh454/httpbrowser/internal/logging"
	"github.com/raysh454/httpbrowser/internal/uri"
)

// Page is one visited page.
type Page struct {
	URI    string
	Status int
	Depth  int
	Err    error
}

// Spider follows links from a start page up to MaxDepth hops away. Pages
// are fetched one at a time through the session, so cookies set on one page
// are sent to the next.
type Spider struct {
	MaxDepth int
	// MaxPages caps the number of fetched pages; 0 means no cap.
	MaxPages int

	session *browser.Session
	logger  logging.Logger
}

// NewSpider creates a Spider driving s.
func NewSpider(s *browser.Session, maxDepth int, logger logging.Logger) *Spider {
	return &Spider{
		MaxDepth: maxDepth,
		session:  s,
		logger:   logging.OrNop(logger).With(logging.String("component", "crawl")),
	}
}

type spiderHelper struct {
	spider *Spider
	host   string
	depth  map[string]int
	queue  []string
	pages  []Page
}

// Enumerate visits start and every same-host page reachable from it. A page
// that fails to load is reported with Err set and the walk continues.
func (s *Spider) Enumerate(ctx context.Context, start string) ([]Page, error) {
	root := s.session.Connector().Resolve(start, nil)
	u, err := url.Parse(root)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("crawl start %q: %w", start, uri.ErrMissingHost)
	}
	root = uri.WithoutFragment(root)

	sh := &spiderHelper{
		spider: s,
		host:   strings.ToLower(u.Host),
		depth:  map[string]int{root: 0},
		queue:  []string{root},
	}
	err = sh.run(ctx)
	return sh.pages, err
}

func (sh *spiderHelper) run(ctx context.Context) error {
	for i := 0; i < len(sh.queue); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit := sh.spider.MaxPages; limit > 0 && len(sh.pages) >= limit {
			return nil
		}
		target := sh.queue[i]
		depth := sh.depth[target]
		if depth > sh.spider.MaxDepth {
			return nil
		}

		page, links := sh.crawlPage(ctx, target, depth)
		sh.pages = append(sh.pages, page)
		sh.appendPages(links, depth)
	}
	return nil
}

func (sh *spiderHelper) crawlPage(ctx context.Context, target string, depth int) (Page, []string) {
	page := Page{URI: target, Depth: depth}
	resp, err := sh.spider.session.AmOnPage(ctx, target)
	if resp != nil {
		page.Status = resp.Status
	}
	if err != nil {
		page.Err = err
		sh.spider.logger.Warn("error while crawling page", logging.String("url", target), logging.Err(err))
		if resp == nil || errors.Is(err, context.Canceled) {
			return page, nil
		}
	}
	if current, err := sh.spider.session.CurrentURL(); err == nil {
		page.URI = current
		if _, seen := sh.depth[uri.WithoutFragment(current)]; !seen {
			sh.depth[uri.WithoutFragment(current)] = depth
		}
	}
	if !strings.HasPrefix(resp.ContentType(), "text/html") {
		return page, nil
	}

	links, err := sh.spider.session.Links()
	if err != nil {
		sh.spider.logger.Warn("couldn't parse page", logging.String("url", page.URI), logging.Err(err))
		return page, nil
	}
	return page, links
}

func (sh *spiderHelper) appendPages(links []string, lastDepth int) {
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if strings.ToLower(u.Host) != sh.host {
			continue
		}
		link = uri.WithoutFragment(link)
		if _, seen := sh.depth[link]; seen {
			continue
		}
		sh.depth[link] = lastDepth + 1
		sh.queue = append(sh.queue, link)
	}
}
