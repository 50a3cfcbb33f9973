package appdef

import "github.com/verte-zerg/appdef/internal/xmltree"

func extractTraits(root *xmltree.Node, d *diagnostics) (Traits, error) {
	list, err := requiredElement(root, SectionTraits, "traits")
	if err != nil {
		return nil, err
	}
	traits := Traits{}
	for i, tag := range list.Elements("trait") {
		name, ok := tag.Attr("name")
		if !ok {
			d.skip(SectionTraits, "trait %d has no name attribute", i)
			continue
		}
		if v, ok := tag.Attr("value"); ok {
			traits[name] = &v
		} else {
			traits[name] = nil
		}
	}
	return traits, nil
}
