// Package namespace implements the managed-package namespace extraction
// rules the line registry applies while building LineRecords: object API
// names, Visualforce page references, and CODE_UNIT_STARTED text all embed
// a namespace prefix in a slightly different shape.
package namespace

import "strings"

// Default is the sentinel namespace used when a line does not belong to a
// managed package.
const Default = "default"

// ParseObjectNamespace extracts the namespace from an object or field API
// name of the form "key__Name". Names with no "__" separator belong to the
// unmanaged namespace.
func ParseObjectNamespace(apiName string) string {
	idx := strings.Index(apiName, "__")
	if idx <= 0 {
		return Default
	}
	return apiName[:idx]
}

// ParseVfNamespace extracts the namespace from a Visualforce page reference
// of the form "VF: /apex/ns__Page". Any other shape yields the default
// namespace.
func ParseVfNamespace(text string) string {
	const prefix = "VF: /apex/"
	if !strings.HasPrefix(text, prefix) {
		return Default
	}
	rest := text[len(prefix):]
	idx := strings.Index(rest, "__")
	if idx <= 0 {
		return Default
	}
	return rest[:idx]
}

// ParseCodeUnitNamespace extracts the namespace from CODE_UNIT_STARTED text
// of the form "ns.Type:..." or "ns.Trigger on ...". The leading dotted
// segment is only treated as a namespace when at least one more segment
// follows it; otherwise the default namespace applies.
func ParseCodeUnitNamespace(text string) string {
	dot := strings.Index(text, ".")
	if dot <= 0 {
		return Default
	}
	rest := text[dot+1:]
	if rest == "" {
		return Default
	}
	return text[:dot]
}
