package appdef

import "github.com/verte-zerg/appdef/internal/xmltree"

// featureSet reads the <features type="..."> block below root.
func featureSet(root *xmltree.Node, kind, section string, d *diagnostics) (Features, error) {
	set := root.FirstWithAttr("features", "type", kind)
	if set == nil {
		return nil, missing(section, `<features type="`+kind+`">`)
	}
	features := Features{}
	for i, e := range set.Elements("e") {
		name, hasName := e.Attr("name")
		value, hasValue := e.Attr("value")
		if !hasName || !hasValue {
			d.skip(section, "feature %d has no name or value attribute", i)
			continue
		}
		features[name] = Coerce(value)
	}
	return features, nil
}

func extractMainFeatures(root *xmltree.Node, d *diagnostics) (Features, error) {
	return featureSet(root, "main", SectionFeatures, d)
}
