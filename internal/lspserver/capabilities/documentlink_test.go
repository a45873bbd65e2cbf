package capabilities

import "testing"

func TestFindDocumentLinksAlwaysEmpty(t *testing.T) {
	links := FindDocumentLinks()
	if links == nil {
		t.Fatalf("expected an empty slice, not nil")
	}
	if len(links) != 0 {
		t.Fatalf("expected no links, got %+v", links)
	}
}
