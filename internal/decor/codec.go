package decor

import (
	"bytes"
	"encoding/json"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/faults"
)

type vec3JSON struct {
	X *float32 `json:"x"`
	Y *float32 `json:"y"`
	Z *float32 `json:"z"`
}

type recordJSON struct {
	CatalogID   string    `json:"catalogId,omitempty"`
	ToyID       string    `json:"toyId,omitempty"`
	Attribution *string   `json:"attribution"`
	By          *string   `json:"by,omitempty"`
	Note        *string   `json:"note"`
	Position    *vec3JSON `json:"position"`
	Scale       *float32  `json:"scale,omitempty"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Encode serializes the list in placement order.
func Encode(list []*Decoration) ([]byte, error) {
	out := make([]recordJSON, 0, len(list))
	for _, d := range list {
		x, y, z, sc := d.Position.X, d.Position.Y, d.Position.Z, d.Scale
		out = append(out, recordJSON{
			CatalogID:   d.CatalogID,
			Attribution: nullable(d.Attribution),
			Note:        nullable(d.Note),
			Position:    &vec3JSON{X: &x, Y: &y, Z: &z},
			Scale:       &sc,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("decor: encode: %w", err)
	}
	return data, nil
}

// Decode parses a persisted list. The document must be a JSON array of
// records with a catalog id and a complete position; anything else fails
// with faults.ErrMalformedInput. Empty input is an empty list. Records
// without a scale get defaultScale; scales are clamped.
func Decode(data []byte, defaultScale float32) ([]Decoration, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var raw []recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decor: decode: %w: %w", faults.ErrMalformedInput, err)
	}
	out := make([]Decoration, 0, len(raw))
	for i, r := range raw {
		id := r.CatalogID
		if id == "" {
			id = r.ToyID
		}
		if id == "" {
			return nil, fmt.Errorf("decor: record %d: missing catalog id: %w", i, faults.ErrMalformedInput)
		}
		p := r.Position
		if p == nil || p.X == nil || p.Y == nil || p.Z == nil {
			return nil, fmt.Errorf("decor: record %d: incomplete position: %w", i, faults.ErrMalformedInput)
		}
		scale := defaultScale
		if r.Scale != nil && *r.Scale > 0 {
			scale = *r.Scale
		}
		d := Decoration{
			CatalogID: id,
			Position:  rl.NewVector3(*p.X, *p.Y, *p.Z),
			Scale:     Clamp(scale),
		}
		if r.Attribution != nil {
			d.Attribution = *r.Attribution
		} else if r.By != nil {
			d.Attribution = *r.By
		}
		if r.Note != nil {
			d.Note = *r.Note
		}
		out = append(out, d)
	}
	return out, nil
}
