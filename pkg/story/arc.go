package story

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Arc is a predefined narrative theme with an ordered list of stages.
// Arcs are loaded once from the catalog and never mutated.
type Arc struct {
	ID          string   `json:"id,omitempty" yaml:"-"`
	Theme       string   `json:"theme" yaml:"theme" validate:"required"`
	Description string   `json:"description" yaml:"description" validate:"required"`
	Stages      []string `json:"stages" yaml:"stages" validate:"min=1,dive,required"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty" validate:"omitempty,dive,required"`
}

// Validate checks that the arc has everything the prompts need.
func (a Arc) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("arc %q: %w", a.ID, err)
	}
	return nil
}

// Catalog is the ordered set of arcs. Order follows the catalog file and is
// used to break ties during arc selection.
type Catalog struct {
	order []string
	arcs  map[string]Arc
}

// NewCatalog builds a catalog from arcs in the given order. A repeated id
// replaces the earlier arc but keeps its position.
func NewCatalog(arcs ...Arc) *Catalog {
	c := &Catalog{arcs: make(map[string]Arc, len(arcs))}
	for _, a := range arcs {
		c.add(a)
	}
	return c
}

func (c *Catalog) add(a Arc) {
	if c.arcs == nil {
		c.arcs = make(map[string]Arc)
	}
	if _, exists := c.arcs[a.ID]; !exists {
		c.order = append(c.order, a.ID)
	}
	c.arcs[a.ID] = a
}

// Get returns the arc with the given id.
func (c *Catalog) Get(id string) (Arc, bool) {
	a, ok := c.arcs[id]
	return a, ok
}

// IDs returns arc ids in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Arcs returns the arcs in catalog order.
func (c *Catalog) Arcs() []Arc {
	out := make([]Arc, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.arcs[id])
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// Validate runs Arc.Validate on every arc.
func (c *Catalog) Validate() error {
	if c.Len() == 0 {
		return fmt.Errorf("catalog has no arcs")
	}
	for _, a := range c.Arcs() {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalJSON decodes {"arcs": {<id>: {...}}} keeping the key order of the file.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var doc struct {
		Arcs json.RawMessage `json:"arcs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Arcs) == 0 || isNull(doc.Arcs) {
		return fmt.Errorf("catalog is missing the \"arcs\" object")
	}

	dec := json.NewDecoder(bytes.NewReader(doc.Arcs))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("\"arcs\" must be an object")
	}

	*c = Catalog{arcs: make(map[string]Arc)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, _ := tok.(string)

		var a Arc
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("arc %q: %w", id, err)
		}
		a.ID = id
		c.add(a)
	}
	_, err = dec.Token()
	return err
}

// UnmarshalYAML decodes the YAML form of the catalog. Mapping nodes keep
// their order, so tie-breaking matches the file just like the JSON form.
func (c *Catalog) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("catalog must be a mapping")
	}

	var arcsNode *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "arcs" {
			arcsNode = node.Content[i+1]
			break
		}
	}
	if arcsNode == nil || arcsNode.Kind != yaml.MappingNode {
		return fmt.Errorf("catalog is missing the \"arcs\" mapping")
	}

	*c = Catalog{arcs: make(map[string]Arc)}
	for i := 0; i+1 < len(arcsNode.Content); i += 2 {
		id := arcsNode.Content[i].Value
		var a Arc
		if err := arcsNode.Content[i+1].Decode(&a); err != nil {
			return fmt.Errorf("arc %q: %w", id, err)
		}
		a.ID = id
		c.add(a)
	}
	return nil
}
