package appdef

import (
	"fmt"
	"strconv"

	"github.com/verte-zerg/appdef/internal/xmltree"
)

func requiredElement(n *xmltree.Node, section, tag string) (*xmltree.Node, error) {
	el := n.First(tag)
	if el == nil {
		return nil, missing(section, "<"+tag+">")
	}
	return el, nil
}

func requiredText(n *xmltree.Node, section, tag string) (string, error) {
	el, err := requiredElement(n, section, tag)
	if err != nil {
		return "", err
	}
	return el.Text(), nil
}

func requiredAttr(n *xmltree.Node, section, name string) (string, error) {
	v, ok := n.Attr(name)
	if !ok {
		return "", missing(section, "@"+name)
	}
	return v, nil
}

// requiredElementAttr reads <tag attr="..."> below n.
func requiredElementAttr(n *xmltree.Node, section, tag, attr string) (string, error) {
	el, err := requiredElement(n, section, tag)
	if err != nil {
		return "", err
	}
	v, ok := el.Attr(attr)
	if !ok {
		return "", missing(section, fmt.Sprintf("<%s %s>", tag, attr))
	}
	return v, nil
}

func optionalText(n *xmltree.Node, tag string) *string {
	el := n.First(tag)
	if el == nil {
		return nil
	}
	text := el.Text()
	return &text
}

func textOr(n *xmltree.Node, tag, def string) string {
	if v := optionalText(n, tag); v != nil {
		return *v
	}
	return def
}

func parseInt(section, field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &InvalidValueError{Section: section, Field: field, Value: raw, Err: err}
	}
	return n, nil
}

func requiredIntAttr(n *xmltree.Node, section, name string) (int, error) {
	raw, err := requiredAttr(n, section, name)
	if err != nil {
		return 0, err
	}
	return parseInt(section, "@"+name, raw)
}

func requiredIntElementAttr(n *xmltree.Node, section, tag, attr string) (int, error) {
	raw, err := requiredElementAttr(n, section, tag, attr)
	if err != nil {
		return 0, err
	}
	return parseInt(section, fmt.Sprintf("<%s %s>", tag, attr), raw)
}
