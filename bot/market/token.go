package market

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const usPriceID = "us-money-text"

// TokenPrice scrapes the US WoW token price
type TokenPrice struct {
	url  string
	http *http.Client
}

func NewTokenPrice(url string, timeout time.Duration) *TokenPrice {
	return &TokenPrice{url: url, http: &http.Client{Timeout: timeout}}
}

// US returns the current US token price in gold
func (t *TokenPrice) US(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", err, ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d: %w", resp.StatusCode, ErrUpstream)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return 0, err
	}
	node := findByID(doc, "span", usPriceID)
	if node == nil {
		return 0, ErrPriceMissing
	}
	return parsePrice(textOf(node))
}

func findByID(n *html.Node, tag, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, tag, id); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func parsePrice(text string) (int, error) {
	clean := strings.NewReplacer(",", "", "$", "", " ", "").Replace(strings.TrimSpace(text))
	price, err := strconv.Atoi(clean)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", text, ErrPriceMissing)
	}
	return price, nil
}

// FormatGold writes price with thousands separators
func FormatGold(price int) string {
	return message.NewPrinter(language.English).Sprintf("%d", price)
}
