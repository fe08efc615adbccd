package parser

import (
	"strings"

	"ris-scraper/form"
	"ris-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

// notAccessiblePhrase is printed by the site when an attachment is gone
const notAccessiblePhrase = "Auf die Anlage konnte nicht zugegriffen werden oder Sie existiert nicht mehr."

// AttachmentLink is one download form of an attachments page
type AttachmentLink struct {
	Title string
	URL   string
}

// AttachmentsPage is the parsed content of an agenda item's attachments page
type AttachmentsPage struct {
	NotAccessible bool
	Links         []AttachmentLink
}

// ParseAttachmentsPage lists the download forms of an attachments page.
// Form URLs are appended to baseURL without further joining.
func ParseAttachmentsPage(htmlContent, baseURL string) (*AttachmentsPage, error) {
	doc, err := newDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	if strings.Contains(doc.Text(), notAccessiblePhrase) {
		return &AttachmentsPage{NotAccessible: true}, nil
	}

	page := &AttachmentsPage{}
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		page.Links = append(page.Links, AttachmentLink{
			Title: strings.TrimSpace(s.Text()),
			URL:   baseURL + form.FromSelection(s).URL(),
		})
	})
	return page, nil
}

// ParseCommittees reads the committee selection of the search page.
// A page without the selection yields no committees.
func ParseCommittees(htmlContent string) ([]models.Committee, error) {
	doc, err := newDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	var committees []models.Committee
	doc.Find("select#select_gremium option").Each(func(_ int, s *goquery.Selection) {
		value := s.AttrOr("value", "")
		if value == "" {
			return
		}
		committees = append(committees, models.Committee{ID: value, Name: strings.TrimSpace(s.Text())})
	})
	return committees, nil
}
