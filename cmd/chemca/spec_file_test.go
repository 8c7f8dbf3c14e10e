package main

import (
	"os"
	"path/filepath"
	"testing"
)

const s1DiffusionJSON = `{
	"name": "s1-diffusion",
	"iterationsNumber": 20,
	"gridHeight": 10,
	"gridWidth": 10,
	"ingredients": [
		{"name": "A", "molarFraction": 50, "color": "#ff0000"},
		{"name": "B", "molarFraction": 50, "color": "#00ff00"}
	],
	"pm": [1, 1],
	"j": [
		{"relation": "A|A", "value": 0},
		{"relation": "A|B", "value": 0},
		{"relation": "B|B", "value": 0}
	]
}`

func writeTempSpec(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp spec: %v", err)
	}
	return path
}

func TestLoadSpecFileParsesS1Scenario(t *testing.T) {
	path := writeTempSpec(t, s1DiffusionJSON)
	spec, err := loadSpecFile(path)
	if err != nil {
		t.Fatalf("loadSpecFile: %v", err)
	}
	if spec.Name != "s1-diffusion" {
		t.Errorf("Name = %q", spec.Name)
	}
	if spec.GridHeight != 10 || spec.GridWidth != 10 {
		t.Errorf("grid = %dx%d, want 10x10", spec.GridHeight, spec.GridWidth)
	}
	if len(spec.Ingredients) != 2 || spec.Ingredients[0].Name != 'A' || spec.Ingredients[1].Name != 'B' {
		t.Fatalf("unexpected ingredients: %+v", spec.Ingredients)
	}
	if len(spec.Parameters.Pm) != 2 {
		t.Fatalf("Pm = %v, want length 2", spec.Parameters.Pm)
	}
}

func TestLoadSpecFileWithReactionAndRotation(t *testing.T) {
	content := `{
		"name": "s2-reaction",
		"iterationsNumber": 1000,
		"gridHeight": 20,
		"gridWidth": 20,
		"ingredients": [
			{"name": "A", "molarFraction": 50},
			{"name": "B", "molarFraction": 50},
			{"name": "C", "molarFraction": 0}
		],
		"pm": [0.7, 0.7, 0.7],
		"j": [{"relation": "A|A", "value": 0.9}, {"relation": "A|B", "value": 0.8}],
		"reactions": [{
			"reactants": ["A", "B"],
			"products": ["A", "C"],
			"pr": [0.7, 0.9],
			"reversePr": [0.3, 0.1],
			"hasIntermediate": true
		}],
		"rotation": {"component": "A", "prot": 0.8}
	}`
	path := writeTempSpec(t, content)
	spec, err := loadSpecFile(path)
	if err != nil {
		t.Fatalf("loadSpecFile: %v", err)
	}
	if len(spec.Reactions) != 1 {
		t.Fatalf("expected 1 reaction, got %d", len(spec.Reactions))
	}
	r := spec.Reactions[0]
	if r.Reactants != [2]byte{'A', 'B'} || r.Products != [2]byte{'A', 'C'} {
		t.Errorf("unexpected reaction: %+v", r)
	}
	if !r.HasIntermediate {
		t.Errorf("expected HasIntermediate = true")
	}
	if spec.Rotation.Component != 'A' || spec.Rotation.Prot != 0.8 {
		t.Errorf("unexpected rotation: %+v", spec.Rotation)
	}
}

func TestLoadSpecFileRejectsMultiLetterIngredientName(t *testing.T) {
	content := `{
		"name": "bad",
		"ingredients": [{"name": "AB", "molarFraction": 100}],
		"pm": [1]
	}`
	path := writeTempSpec(t, content)
	if _, err := loadSpecFile(path); err == nil {
		t.Fatalf("expected an error for a multi-letter ingredient name")
	}
}
