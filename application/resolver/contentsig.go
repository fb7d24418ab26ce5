package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/agnivade/levenshtein"

	"webreplay/domain/entities"
	"webreplay/domain/interfaces"
)

// resolveBySignature matches an element by its visible content after
// every structural candidate has been exhausted. Fixed order: heading
// text, link href substring, image src substring, price text; the
// first non-empty match wins. A fallback position inside a list
// container is the last resort.
func (r *Resolver) resolveBySignature(ctx context.Context, sig *entities.ContentSignature) (interfaces.Element, error) {
	fp := sig.Fingerprint

	if fp.Heading != "" {
		el, err := r.byTextSnapshot(ctx, "h1, h2, h3, h4, h5, h6", fp.Heading)
		if el != nil || err != nil {
			return el, err
		}
	}
	if fp.LinkHref != "" {
		el, err := r.firstQueryMatch(ctx, fmt.Sprintf("a[href*=%q]", fp.LinkHref))
		if el != nil || err != nil {
			return el, err
		}
	}
	if fp.ImageSrc != "" {
		el, err := r.firstQueryMatch(ctx, fmt.Sprintf("img[src*=%q]", fp.ImageSrc))
		if el != nil || err != nil {
			return el, err
		}
	}
	if fp.Price != "" {
		el, err := r.byTextSnapshot(ctx, "span, div, p, strong, b, td", fp.Price)
		if el != nil || err != nil {
			return el, err
		}
	}

	if sig.FallbackPosition != nil && sig.ListContainer != "" {
		return r.firstQueryMatch(ctx, nthChildExpr(sig.ListContainer, *sig.FallbackPosition))
	}
	return nil, nil
}

// byTextSnapshot parses a snapshot of the live page and scans the
// given node kinds for text containing want. Among several near
// matches the one with the smallest edit distance wins. The chosen
// node is converted back into a live reference by deriving its
// nth-child CSS path and re-querying the driver.
func (r *Resolver) byTextSnapshot(ctx context.Context, scope, want string) (interfaces.Element, error) {
	html, err := r.page.Content(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page snapshot: %w", err)
	}

	wantLower := strings.ToLower(strings.TrimSpace(want))
	var best *goquery.Selection
	bestDist := -1
	doc.Find(scope).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || !strings.Contains(strings.ToLower(text), wantLower) {
			return
		}
		d := levenshtein.ComputeDistance(strings.ToLower(text), wantLower)
		if bestDist < 0 || d < bestDist {
			best = s
			bestDist = d
		}
	})
	if best == nil {
		return nil, nil
	}
	return r.firstQueryMatch(ctx, cssPath(best))
}

func (r *Resolver) firstQueryMatch(ctx context.Context, expr string) (interfaces.Element, error) {
	set, err := r.page.Query(ctx, expr)
	if err != nil {
		return nil, err
	}
	count, err := set.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return set.Nth(0), nil
}

// cssPath derives a child-indexed CSS path from body down to the
// selection, unique by construction.
func cssPath(s *goquery.Selection) string {
	var segments []string
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		name := goquery.NodeName(cur)
		if name == "body" || name == "html" || name == "#document" {
			break
		}
		idx := cur.PrevAll().Length() + 1
		segments = append(segments, fmt.Sprintf(":nth-child(%d)", idx))
	}
	if len(segments) == 0 {
		return "body"
	}
	// Reverse into document order.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return "body > " + strings.Join(segments, " > ")
}
