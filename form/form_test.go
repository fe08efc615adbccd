package form

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestFormURL(t *testing.T) {
	tests := []struct {
		name     string
		form     Form
		expected string
	}{
		{"two fields", Form{Action: "x.php", Fields: []Field{{"a", "1"}, {"b", "2"}}}, "x.php?a=1&b=2"},
		{"no fields", Form{Action: "x.php"}, "x.php?"},
		{"order preserved", Form{Action: "y.php", Fields: []Field{{"z", "9"}, {"a", "1"}}}, "y.php?z=9&a=1"},
		{"values not escaped", Form{Action: "a.php", Fields: []Field{{"q", "a b&c"}}}, "a.php?q=a b&c"},
		{"empty value", Form{Action: "a.php", Fields: []Field{{"q", ""}}}, "a.php?q="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.form.URL()
			if got != tt.expected {
				t.Errorf("URL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFromSelection(t *testing.T) {
	html := `<table><tr><td>
		<form action="getfile.php" method="post">
			<input type="hidden" name="id" value="42">
			<input type="submit" name="go" value="Öffnen">
			<input type="hidden" name="type" value="do">
			<input type="hidden" value="anonymous">
		</form>
	</td></tr></table>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}

	for name, sel := range map[string]*goquery.Selection{
		"cell": doc.Find("td").First(),
		"form": doc.Find("form").First(),
	} {
		t.Run(name, func(t *testing.T) {
			f := FromSelection(sel)
			if f.Action != "getfile.php" {
				t.Errorf("Action = %q, want getfile.php", f.Action)
			}
			if got := f.URL(); got != "getfile.php?id=42&type=do" {
				t.Errorf("URL() = %q, want getfile.php?id=42&type=do", got)
			}
		})
	}
}
