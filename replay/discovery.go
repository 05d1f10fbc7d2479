package replay

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var gameIDRe = regexp.MustCompile(`/game/([a-f0-9-]+)`)

// Discoverer finds game IDs on a player's stats page.
type Discoverer struct {
	client    *http.Client
	userAgent string
}

func NewDiscoverer() *Discoverer {
	return &Discoverer{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "goalsnek-replay/1.0",
	}
}

// PlayerGames returns the distinct game IDs linked from statsURL in page
// order.
func (d *Discoverer) PlayerGames(ctx context.Context, statsURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", statsURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/game/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := gameIDRe.FindStringSubmatch(href)
		if len(m) < 2 || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	})
	return ids, nil
}
