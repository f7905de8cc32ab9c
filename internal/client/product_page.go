package client

import (
	"fmt"
	"regexp"
	"strings"

	"asindir/client/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// Thumbnails carry a size token like "._AC_US40_." before the extension.
	imageSizeToken = regexp.MustCompile(`\._[^/]*_\.`)
)

type productPageParser struct {
	baseURL string
}

func newProductPageParser(baseURL string) *productPageParser {
	return &productPageParser{
		baseURL: baseURL,
	}
}

// isBlocked reports whether html is a robot check instead of a product page.
func isBlocked(html string) bool {
	return strings.Contains(html, "/errors/validateCaptcha") ||
		strings.Contains(html, "Type the characters you see in this image")
}

func (p *productPageParser) ParseProductPage(html, asinValue string) (*domain.ProductDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	details := &domain.ProductDetails{
		ASIN: asinValue,
		URL:  p.productURL(asinValue),
	}

	details.Title = cleanText(doc.Find("#productTitle").First().Text())
	if details.Title == "" {
		details.Title = cleanText(doc.Find("meta[name='title']").AttrOr("content", ""))
	}
	if details.Title == "" {
		return nil, fmt.Errorf("no product title found for %s", asinValue)
	}

	details.Price = p.extractPrice(doc)
	details.Brand = p.extractBrand(doc)
	details.Availability = cleanText(doc.Find("#availability").First().Text())
	details.Images = p.extractImages(doc)

	log.Debugf("Parsed product page %s: %q, %d images", asinValue, details.Title, len(details.Images))
	return details, nil
}

func (p *productPageParser) productURL(asinValue string) string {
	return fmt.Sprintf("%s/dp/%s", p.baseURL, asinValue)
}

func (p *productPageParser) extractPrice(doc *goquery.Document) string {
	selectors := []string{
		"#corePrice_feature_div .a-price .a-offscreen",
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		".a-price .a-offscreen",
	}
	for _, sel := range selectors {
		if price := cleanText(doc.Find(sel).First().Text()); price != "" {
			return price
		}
	}
	return ""
}

func (p *productPageParser) extractBrand(doc *goquery.Document) string {
	if brand := cleanText(doc.Find("#bylineInfo").First().Text()); brand != "" {
		brand = strings.TrimPrefix(brand, "Brand: ")
		brand = strings.TrimPrefix(brand, "Visit the ")
		brand = strings.TrimSuffix(brand, " Store")
		return brand
	}

	var brand string
	doc.Find("#productOverview_feature_div tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return true
		}
		if cleanText(cells.Eq(0).Text()) == "Brand" {
			brand = cleanText(cells.Eq(1).Text())
			return false
		}
		return true
	})
	return brand
}

func (p *productPageParser) extractImages(doc *goquery.Document) []string {
	var images []string
	seen := make(map[string]struct{})

	add := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		src = imageSizeToken.ReplaceAllString(src, ".")
		if _, ok := seen[src]; ok {
			return
		}
		seen[src] = struct{}{}
		images = append(images, src)
	}

	landing := doc.Find("#landingImage, #imgBlkFront").First()
	if hires, ok := landing.Attr("data-old-hires"); ok && hires != "" {
		add(hires)
	} else {
		add(landing.AttrOr("src", ""))
	}

	doc.Find("#altImages img").Each(func(i int, img *goquery.Selection) {
		add(img.AttrOr("src", ""))
	})

	return images
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
