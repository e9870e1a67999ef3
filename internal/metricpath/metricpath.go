package metricpath

import "strings"

// Separator joins the metric names of nested instrumentation spans into a
// single metric path.
const Separator = " / "

// OtherLeaf is the synthetic trailing element representing time spent in a
// path that is not further attributed to a deeper metric.
const OtherLeaf = "other"

var otherSuffix = Separator + OtherLeaf

// Join builds the metric path for a stack of metric names, outermost first.
func Join(names []string) string {
	return strings.Join(names, Separator)
}

// Split breaks a metric path back into its elements.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Prefixes returns every non-empty prefix path of the given metric names,
// shortest first. Prefixes(nil) is nil.
func Prefixes(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	prefixes := make([]string, 0, len(names))
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(name)
		prefixes = append(prefixes, b.String())
	}
	return prefixes
}

// Other returns the synthetic "<path> / other" leaf key for a metric path.
func Other(path string) string {
	return path + otherSuffix
}

// IsOther reports whether a metric path ends in the synthetic other leaf.
func IsOther(path string) bool {
	return strings.HasSuffix(path, otherSuffix)
}

// TrimOther removes a trailing other leaf, if present.
func TrimOther(path string) string {
	return strings.TrimSuffix(path, otherSuffix)
}
