package models

import "testing"

func TestParseRoute(t *testing.T) {
	r, err := ParseRoute("ghost:blog:page:contact-us")
	if err != nil {
		t.Fatalf("ParseRoute error: %v", err)
	}
	want := Route{Instance: "blog", Type: TypePage, Slug: "contact-us"}
	if r != want {
		t.Errorf("ParseRoute = %+v, want %+v", r, want)
	}
	if r.String() != "ghost:blog:page:contact-us" {
		t.Errorf("String() = %q", r.String())
	}
}

func TestParseRouteRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"wrong scheme", "notion:blog:post:hello"},
		{"too few parts", "ghost:blog:hello"},
		{"colon in slug", "ghost:blog:post:my-post:part-2"},
		{"unknown type", "ghost:blog:story:hello"},
		{"empty instance", "ghost::post:hello"},
		{"empty slug", "ghost:blog:post:"},
		{"spaces in slug", "ghost:blog:post:My Post"},
		{"uppercase slug", "ghost:blog:post:Hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r, err := ParseRoute(tt.in); err == nil {
				t.Errorf("ParseRoute(%q) = %+v, want error", tt.in, r)
			}
		})
	}
}

func TestIsRoute(t *testing.T) {
	if !IsRoute("ghost:blog:post:hello") {
		t.Error("expected ghost route")
	}
	if IsRoute("notion:abc") || IsRoute("ghostly") {
		t.Error("expected non-ghost shares to be ignored")
	}
}
