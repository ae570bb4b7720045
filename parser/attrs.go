package parser

import (
	"encoding/xml"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var scoped = []string{"variants", "varset"}

var registerAttrs = append([]string{
	"name", "offset", "type", "low", "high", "pos", "shr", "radix", "align",
	"stride", "length", "usage", "access",
}, scoped...)

// allowed lists the attributes each element accepts.
var allowed = map[string][]string{
	"database": {"schemaLocation"},
	"import":   {"file"},
	"domain":   append([]string{"name", "width", "size", "prefix", "bare"}, scoped...),
	"stripe":   append([]string{"name", "prefix"}, scoped...),
	"enum":     append([]string{"name", "bare", "inline", "prefix"}, scoped...),
	"value":    append([]string{"name", "value"}, scoped...),
	"array":    append([]string{"name", "offset", "stride", "length", "usage", "index", "prefix"}, scoped...),
	"bitset":   append([]string{"name", "inline", "prefix"}, scoped...),
	"bitfield": append([]string{"name", "low", "high", "pos", "shr", "radix", "align", "min", "max", "type", "addvariant"}, scoped...),
	"reg32":    registerAttrs,
	"reg64":    registerAttrs,
}

// Elements returns the names of all recognised elements, sorted.
func Elements() []string {
	names := maps.Keys(allowed)
	slices.Sort(names)
	return names
}

// attributes collects the attributes of el by local name. Namespace
// declarations are dropped.
func attributes(el xml.StartElement) (map[string]string, error) {
	kind := el.Name.Local
	allow := allowed[kind]

	attrs := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		if !slices.Contains(allow, a.Name.Local) {
			return nil, fmt.Errorf("unknown attribute '%s' on <%s>", a.Name.Local, kind)
		}
		attrs[a.Name.Local] = a.Value
	}
	return attrs, nil
}

func required(kind string, attrs map[string]string, name string) (string, error) {
	v, ok := attrs[name]
	if !ok {
		return "", fmt.Errorf("<%s> is missing required attribute '%s'", kind, name)
	}
	return v, nil
}
