package main

import (
	"encoding/json"
	"fmt"
	"os"

	"chemca/sim"
)

// fileIngredient mirrors the original service's schema.Ingredient
// (name as a letter string, molarFraction, color), friendlier for a
// hand-edited file than the numeric letter encoding the wire API uses.
type fileIngredient struct {
	Name          string  `json:"name"`
	MolarFraction float64 `json:"molarFraction"`
	Color         string  `json:"color"`
}

type filePairParameter struct {
	Relation string  `json:"relation"`
	Value    float64 `json:"value"`
}

type fileReaction struct {
	Reactants       [2]string  `json:"reactants"`
	Products        [2]string  `json:"products"`
	Pr              [2]float64 `json:"pr"`
	ReversePr       [2]float64 `json:"reversePr"`
	HasIntermediate bool       `json:"hasIntermediate"`
}

type fileRotation struct {
	Component string  `json:"component"`
	Prot      float64 `json:"prot"`
}

type fileSpec struct {
	Name             string              `json:"name"`
	IterationsNumber int                 `json:"iterationsNumber"`
	GridHeight       int                 `json:"gridHeight"`
	GridWidth        int                 `json:"gridWidth"`
	Ingredients      []fileIngredient    `json:"ingredients"`
	Pm               []float64           `json:"pm"`
	J                []filePairParameter `json:"j"`
	Reactions        []fileReaction      `json:"reactions"`
	Rotation         fileRotation        `json:"rotation"`
	Seed             int64               `json:"seed"`
}

func loadSpecFile(path string) (sim.Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sim.Spec{}, fmt.Errorf("chemca: read spec file %s: %w", path, err)
	}
	var fs fileSpec
	if err := json.Unmarshal(raw, &fs); err != nil {
		return sim.Spec{}, fmt.Errorf("chemca: parse spec file %s: %w", path, err)
	}
	return fs.toSpec()
}

func (fs fileSpec) toSpec() (sim.Spec, error) {
	ingredients := make([]sim.Ingredient, 0, len(fs.Ingredients))
	for _, ing := range fs.Ingredients {
		letter, err := singleLetter(ing.Name)
		if err != nil {
			return sim.Spec{}, fmt.Errorf("chemca: ingredient %q: %w", ing.Name, err)
		}
		ingredients = append(ingredients, sim.Ingredient{Name: letter, MolarFraction: ing.MolarFraction, Color: ing.Color})
	}

	j := make([]sim.PairParameter, 0, len(fs.J))
	for _, entry := range fs.J {
		j = append(j, sim.PairParameter{Relation: entry.Relation, Value: entry.Value})
	}

	reactions := make([]sim.Reaction, 0, len(fs.Reactions))
	for _, r := range fs.Reactions {
		reactant0, err := singleLetter(r.Reactants[0])
		if err != nil {
			return sim.Spec{}, err
		}
		reactant1, err := singleLetter(r.Reactants[1])
		if err != nil {
			return sim.Spec{}, err
		}
		product0, err := singleLetter(r.Products[0])
		if err != nil {
			return sim.Spec{}, err
		}
		product1, err := singleLetter(r.Products[1])
		if err != nil {
			return sim.Spec{}, err
		}
		reactions = append(reactions, sim.Reaction{
			Reactants:       [2]byte{reactant0, reactant1},
			Products:        [2]byte{product0, product1},
			Pr:              r.Pr,
			ReversePr:       r.ReversePr,
			HasIntermediate: r.HasIntermediate,
		})
	}

	var rotation sim.Rotation
	if fs.Rotation.Component != "" {
		letter, err := singleLetter(fs.Rotation.Component)
		if err != nil {
			return sim.Spec{}, fmt.Errorf("chemca: rotation component %q: %w", fs.Rotation.Component, err)
		}
		rotation = sim.Rotation{Component: letter, Prot: fs.Rotation.Prot}
	}

	return sim.Spec{
		Name:             fs.Name,
		IterationsNumber: fs.IterationsNumber,
		GridHeight:       fs.GridHeight,
		GridWidth:        fs.GridWidth,
		Ingredients:      ingredients,
		Parameters:       sim.Parameters{Pm: fs.Pm, J: j},
		Reactions:        reactions,
		Rotation:         rotation,
		Seed:             fs.Seed,
	}, nil
}

func singleLetter(s string) (byte, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("expected a single letter, got %q", s)
	}
	return s[0], nil
}
