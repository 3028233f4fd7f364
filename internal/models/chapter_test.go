package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestChapter_CloneIsIndependent(t *testing.T) {
	uid := "u1"
	orig := &Chapter{
		ID:          "c1",
		UserID:      &uid,
		Connections: []string{"echoes chapter 1"},
		Tags:        []string{"cat"},
	}
	cp := orig.Clone()
	cp.Tags[0] = "dog"
	cp.Connections = append(cp.Connections, "x")
	*cp.UserID = "u2"
	if orig.Tags[0] != "cat" {
		t.Errorf("original tags mutated: %v", orig.Tags)
	}
	if len(orig.Connections) != 1 {
		t.Errorf("original connections mutated: %v", orig.Connections)
	}
	if *orig.UserID != "u1" {
		t.Errorf("original user id mutated: %s", *orig.UserID)
	}
}

func TestChapter_JSONShape(t *testing.T) {
	c := &Chapter{
		ID:            "c1",
		ImageURL:      "https://example.com/a.png",
		Narrative:     "A cat sits on a mat",
		Connections:   []string{},
		Tags:          []string{"cat", "indoor"},
		ChapterNumber: 1,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"userId":null`, `"imageUrl":"https://example.com/a.png"`, `"chapterNumber":1`, `"connections":[]`, `"createdAt":"2026-01-02T03:04:05Z"`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %s", want, s)
		}
	}
}

func TestAnalysis_Normalize(t *testing.T) {
	a := &Analysis{Narrative: "n"}
	a.Normalize()
	if a.Connections == nil || a.Tags == nil {
		t.Errorf("expected empty slices, got %#v", a)
	}
}

func TestStoryTitle(t *testing.T) {
	if got := StoryTitle(3); got != "Visual Story - 3 Chapters" {
		t.Errorf("StoryTitle(3) = %q", got)
	}
}
