// Package browser binds the field triples of a live page to a dispatcher.
// A triple is three elements named by convention: "<m>Url" holds the target
// URL, "<m>Data" the optional JSON body and "<m>Response" receives the text.
package browser

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	urlSuffix      = "Url"
	dataSuffix     = "Data"
	responseSuffix = "Response"
)

// Triple names the elements found for one method. DataID and ResponseID are
// empty when the page has no such element.
type Triple struct {
	Method     string `json:"method"`
	URLID      string `json:"url_id"`
	DataID     string `json:"data_id,omitempty"`
	ResponseID string `json:"response_id,omitempty"`
}

// Complete reports whether the triple can be bound.
func (t Triple) Complete() bool {
	return t.URLID != "" && t.ResponseID != ""
}

// DiscoverTriples parses html and returns one Triple per element whose id ends
// in "Url", sorted by method. The method is the upper-cased id prefix.
func DiscoverTriples(html io.Reader) ([]Triple, error) {
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	ids := make(map[string]struct{})
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && id != "" {
			ids[id] = struct{}{}
		}
	})

	byMethod := make(map[string]Triple)
	for id := range ids {
		prefix, ok := strings.CutSuffix(id, urlSuffix)
		if !ok || prefix == "" {
			continue
		}
		t := Triple{Method: strings.ToUpper(prefix), URLID: id}
		if _, ok := ids[prefix+dataSuffix]; ok {
			t.DataID = prefix + dataSuffix
		}
		if _, ok := ids[prefix+responseSuffix]; ok {
			t.ResponseID = prefix + responseSuffix
		}
		// Case variants of one method: keep the complete triple, then the
		// lowest id.
		if prev, ok := byMethod[t.Method]; ok {
			if prev.Complete() && !t.Complete() {
				continue
			}
			if prev.Complete() == t.Complete() && prev.URLID < t.URLID {
				continue
			}
		}
		byMethod[t.Method] = t
	}

	out := make([]Triple, 0, len(byMethod))
	for _, t := range byMethod {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out, nil
}
