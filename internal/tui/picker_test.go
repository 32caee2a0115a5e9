// ABOUTME: Unit tests for the route picker bubbletea model.
// ABOUTME: Drives the model with synthetic key messages through each step.
package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/ghostpost/internal/models"
	"github.com/2389-research/ghostpost/internal/publish"
)

func press(m PickerModel, msgs ...tea.KeyMsg) PickerModel {
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(PickerModel)
	}
	return m
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEscape}
)

func TestPicker_FullFlow(t *testing.T) {
	m := NewPickerModel(publish.RouteRequest{
		Note:        "draft",
		DefaultSlug: "my-post",
		Instances:   []string{"blog", "docs"},
	})
	if m.step != PickInstance {
		t.Fatalf("expected PickInstance, got %d", m.step)
	}

	m = press(m, keyDown, keyEnter)
	if m.instance != "docs" || m.step != PickType {
		t.Fatalf("expected docs selected, got %q step %d", m.instance, m.step)
	}

	m = press(m, keyDown, keyEnter)
	if m.ctype != models.TypePage || m.step != PickSlug {
		t.Fatalf("expected page selected, got %q step %d", m.ctype, m.step)
	}

	m = press(m, keyEnter)
	route, ok := m.Route()
	if !ok {
		t.Fatal("expected finished picker")
	}
	want := models.Route{Instance: "docs", Type: models.TypePage, Slug: "my-post"}
	if route != want {
		t.Errorf("expected %v, got %v", want, route)
	}
}

func TestPicker_SingleInstanceSkipsChoice(t *testing.T) {
	m := NewPickerModel(publish.RouteRequest{Instances: []string{"blog"}, DefaultSlug: "x"})
	if m.step != PickType || m.instance != "blog" {
		t.Fatalf("expected instance preselected, got %q step %d", m.instance, m.step)
	}
	m = press(m, keyEnter, keyEnter)
	route, ok := m.Route()
	if !ok || route.Type != models.TypePost || route.Slug != "x" {
		t.Errorf("unexpected route %v ok=%v", route, ok)
	}
}

func TestPicker_SlugNormalizedOnEnter(t *testing.T) {
	m := NewPickerModel(publish.RouteRequest{Instances: []string{"blog"}})
	m = press(m, keyEnter)
	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(":::")}, keyEnter)
	if m.step != PickSlug {
		t.Fatalf("expected to stay on a slug with no letters, got %d", m.step)
	}
	m.slug.SetValue("My Post: Part 2")
	m = press(m, keyEnter)
	route, ok := m.Route()
	if !ok {
		t.Fatal("expected finished picker")
	}
	if _, err := models.ParseRoute(route.String()); err != nil {
		t.Errorf("route %q does not parse back: %v", route.String(), err)
	}
	if strings.ContainsAny(route.Slug, ": ") {
		t.Errorf("expected url slug, got %q", route.Slug)
	}
}

func TestPicker_EditSlug(t *testing.T) {
	m := NewPickerModel(publish.RouteRequest{Instances: []string{"blog"}})
	m = press(m, keyEnter)
	m = press(m, keyEnter)
	if m.step != PickSlug {
		t.Fatalf("expected to stay on empty slug, got %d", m.step)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")}, keyEnter)
	route, ok := m.Route()
	if !ok || route.Slug != "hi" {
		t.Errorf("expected typed slug, got %v ok=%v", route, ok)
	}
}

func TestPicker_Cancel(t *testing.T) {
	m := NewPickerModel(publish.RouteRequest{Instances: []string{"blog", "docs"}})
	updated, cmd := m.Update(keyEsc)
	m = updated.(PickerModel)
	if cmd == nil {
		t.Error("expected quit cmd")
	}
	if _, ok := m.Route(); ok {
		t.Error("expected no route after cancel")
	}
}

func TestPicker_View(t *testing.T) {
	m := NewPickerModel(publish.RouteRequest{Note: "draft", Instances: []string{"blog", "docs"}})
	view := m.View()
	if !strings.Contains(view, "draft") || !strings.Contains(view, "docs") {
		t.Errorf("expected note and instances in view, got %q", view)
	}
	m = press(m, keyEnter)
	if !strings.Contains(m.View(), "page") {
		t.Error("expected type choices in view")
	}
}
