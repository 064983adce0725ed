package waypoint

import "testing"

func TestCompileTemplateBasic(t *testing.T) {
	m, err := CompileTemplate("/users/{id}", nil)
	if err != nil {
		t.Fatalf("CompileTemplate: %v", err)
	}

	match := m.Match("/users/42")
	if !match.Matched {
		t.Fatalf("expected match for /users/42")
	}
	if v, ok := match.Named("id"); !ok || v != "42" {
		t.Fatalf("expected id=42, got %q ok=%v", v, ok)
	}

	if m.Match("/users/").Matched {
		t.Fatalf("required segment must not match empty value")
	}
	if m.Match("/users/42/extra").Matched {
		t.Fatalf("trailing segment must not match")
	}
}

func TestCompileTemplateOptionalSegment(t *testing.T) {
	m, err := CompileTemplate("/posts/{id}/comments/{?commentId}", nil)
	if err != nil {
		t.Fatalf("CompileTemplate: %v", err)
	}

	full := m.Match("/posts/7/comments/99")
	if !full.Matched {
		t.Fatalf("expected full match")
	}
	if v, ok := full.Named("commentId"); !ok || v != "99" {
		t.Fatalf("expected commentId=99, got %q ok=%v", v, ok)
	}

	short := m.Match("/posts/7/comments")
	if !short.Matched {
		t.Fatalf("expected match with absent optional segment and no trailing separator")
	}
	if _, ok := short.Named("commentId"); ok {
		t.Fatalf("absent optional segment must report ok=false, not empty string present")
	}

	if m.Match("/posts/7/comments/").Matched {
		t.Fatalf("the optional segment's own separator must not match on its own")
	}
}

func TestCompileTemplateOptionalSegmentFoldsLeadingSeparator(t *testing.T) {
	m, err := CompileTemplate("/search/{?q}", nil)
	if err != nil {
		t.Fatalf("CompileTemplate: %v", err)
	}

	bare := m.Match("/search")
	if !bare.Matched {
		t.Fatalf("expected /search to match with q absent")
	}
	if _, ok := bare.Named("q"); ok {
		t.Fatalf("q must be absent, not present with an empty value")
	}

	present := m.Match("/search/cats")
	if !present.Matched {
		t.Fatalf("expected /search/cats to match")
	}
	if v, ok := present.Named("q"); !ok || v != "cats" {
		t.Fatalf("expected q=cats, got %q ok=%v", v, ok)
	}
}

func TestCompileTemplateDuplicateSegment(t *testing.T) {
	_, err := CompileTemplate("/a/{id}/b/{id}", nil)
	if err == nil {
		t.Fatalf("expected error for duplicate segment name")
	}
}

func TestCompileTemplateConstraintPattern(t *testing.T) {
	m, err := CompileTemplate("/users/{id}", map[string]Constraint{
		"id": {Pattern: `\d+`},
	})
	if err != nil {
		t.Fatalf("CompileTemplate: %v", err)
	}

	if m.Match("/users/abc").Matched {
		t.Fatalf("constraint pattern should reject non-numeric id")
	}
	if !m.Match("/users/123").Matched {
		t.Fatalf("constraint pattern should accept numeric id")
	}
}

func TestCompileTemplateConstraintRequiredOverride(t *testing.T) {
	required := true
	m, err := CompileTemplate("/search/{?query}", map[string]Constraint{
		"query": {Required: &required},
	})
	if err != nil {
		t.Fatalf("CompileTemplate: %v", err)
	}

	if m.Match("/search/").Matched {
		t.Fatalf("constraint-supplied required=true should override the template's own ? marker")
	}
	if !m.Match("/search/cats").Matched {
		t.Fatalf("expected match when the required segment is present")
	}
}

func TestMatchResultValuesPreserveDeclarationOrder(t *testing.T) {
	m, err := CompileTemplate("/{a}/{b}/{c}", nil)
	if err != nil {
		t.Fatalf("CompileTemplate: %v", err)
	}

	match := m.Match("/1/2/3")
	values := match.Values()
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(values))
	}
	for i, want := range []string{"1", "2", "3"} {
		if values[i] == nil || *values[i] != want {
			t.Fatalf("value[%d]: want %q, got %v", i, want, values[i])
		}
	}
}
