package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/a-h/bedrockrag/models"
)

func citation(text string) models.Citation {
	return models.Citation{
		Text: text,
		Location: models.Location{
			Type: "S3",
			URI:  "s3://bucket/" + text + ".pdf",
		},
		Metadata: map[string]any{
			"x-amz-bedrock-kb-source-uri": "s3://bucket/" + text + ".pdf",
		},
	}
}

func TestPrintCitationsEmpty(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := PrintCitations(buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "Citations: 0\n" + EmptyResultWarning + "\n"
	if actual := buf.String(); actual != expected {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}

func TestPrintCitationsOrder(t *testing.T) {
	buf := new(bytes.Buffer)
	citations := []models.Citation{citation("c1"), citation("c2"), citation("c3")}
	if err := PrintCitations(buf, citations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	actual := buf.String()

	if !strings.HasPrefix(actual, "Citations: 3\n") {
		t.Errorf("expected the count first, got %q", actual)
	}
	if strings.Contains(actual, EmptyResultWarning) {
		t.Error("unexpected empty result warning")
	}
	last := -1
	for i, name := range []string{"c1", "c2", "c3"} {
		header := "Citation " + string(rune('1'+i)) + "\n"
		headerIndex := strings.Index(actual, header)
		if headerIndex < 0 {
			t.Fatalf("missing %q in %q", header, actual)
		}
		if headerIndex < last {
			t.Errorf("citation %d is out of order", i+1)
		}
		contentIndex := strings.Index(actual, "  "+name+"\n")
		if contentIndex < headerIndex {
			t.Errorf("expected content %q after %q", name, header)
		}
		if !strings.Contains(actual, "Location: S3 s3://bucket/"+name+".pdf\n") {
			t.Errorf("missing location of %s", name)
		}
		if !strings.Contains(actual, "  x-amz-bedrock-kb-source-uri: s3://bucket/"+name+".pdf\n") {
			t.Errorf("missing metadata of %s", name)
		}
		last = headerIndex
	}
	if strings.Contains(actual, "Citation 4") {
		t.Error("unexpected extra citation")
	}
}

func TestPrintCitationsFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	score := 0.5
	err := PrintCitations(buf, []models.Citation{
		{
			Text:     "Octank Tower is a building.",
			Location: models.Location{Type: "WEB", URI: "https://example.com"},
			Score:    &score,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `Citations: 1

Citation 1
Score: 0.5000
Content:
  Octank Tower is a building.
Location: WEB https://example.com
Metadata: {}
`
	if actual := buf.String(); actual != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, actual)
	}
}

func TestPrinterWraps(t *testing.T) {
	buf := new(bytes.Buffer)
	p := New(buf, 12)
	if err := p.PrintResponse(models.QueryResponse{Answer: "one two three four", Citations: []models.Citation{}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "Answer:\n  one two\n  three four\nCitations: 0\n" + EmptyResultWarning + "\n"
	if actual := buf.String(); actual != expected {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}

func TestReportComparison(t *testing.T) {
	buf := new(bytes.Buffer)
	without := models.QueryResponse{
		Answer:    "Octank Tower is a building.",
		Citations: []models.Citation{citation("tower")},
	}
	with := models.QueryResponse{
		Answer:    "Octank Tower is a building. The scandal hurt its image.",
		Citations: []models.Citation{citation("tower"), citation("scandal")},
	}
	if err := ReportComparison(buf, without, with); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	actual := buf.String()

	sections := []string{
		"=== Without query decomposition ===\nAnswer:\n  Octank Tower is a building.\nCitations: 1\n",
		"=== With query decomposition ===\nAnswer:\n  Octank Tower is a building. The scandal hurt its image.\nCitations: 2\n",
		"=== Summary ===\nWithout query decomposition: 1 citations\nWith query decomposition: 2 citations\n",
	}
	last := -1
	for _, section := range sections {
		index := strings.Index(actual, section)
		if index < 0 {
			t.Fatalf("missing section %q in:\n%s", section, actual)
		}
		if index < last {
			t.Errorf("section %q is out of order", section)
		}
		last = index
	}
}

func TestReportComparisonWarnsOnEmpty(t *testing.T) {
	buf := new(bytes.Buffer)
	err := ReportComparison(buf, models.QueryResponse{Answer: "no idea"}, models.QueryResponse{Answer: "still no idea"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(buf.String(), EmptyResultWarning); n != 2 {
		t.Errorf("expected 2 warnings, got %d", n)
	}
}

func TestPrintCitationsKeepsContentAsReceived(t *testing.T) {
	buf := new(bytes.Buffer)
	err := PrintCitations(buf, []models.Citation{
		{
			Text:     "  Octank Tower\n\nis a building.  ",
			Location: models.Location{Type: "S3", URI: "s3://bucket/octank.pdf"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "Content:\n    Octank Tower\n  \n  is a building.  \nLocation: S3 s3://bucket/octank.pdf\n"
	if actual := buf.String(); !strings.Contains(actual, expected) {
		t.Errorf("expected %q in %q", expected, actual)
	}
}
