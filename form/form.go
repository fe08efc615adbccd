// Package form rebuilds navigable URLs from server-rendered HTML forms.
package form

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field is a single name/value pair submitted by a form
type Field struct {
	Name  string
	Value string
}

// Form is the action of an HTML form together with its hidden fields
type Form struct {
	Action string
	Fields []Field
}

// URL returns the action followed by the fields as a query string.
// Values are interpolated as-is, the site expects them unescaped.
func (f Form) URL() string {
	var sb strings.Builder
	sb.WriteString(f.Action)
	sb.WriteString("?")
	for i, field := range f.Fields {
		if i > 0 {
			sb.WriteString("&")
		}
		sb.WriteString(field.Name)
		sb.WriteString("=")
		sb.WriteString(field.Value)
	}
	return sb.String()
}

// FromSelection reads the action and hidden inputs of the first form in s
func FromSelection(s *goquery.Selection) Form {
	node := s
	if goquery.NodeName(s) != "form" {
		node = s.Find("form").First()
	}

	f := Form{Action: node.AttrOr("action", "")}
	node.Find("input[type='hidden']").Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok {
			return
		}
		f.Fields = append(f.Fields, Field{Name: name, Value: input.AttrOr("value", "")})
	})
	return f
}
