package routes

import "net/http"

// Group organizes routes under a common prefix. Children inherit the prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux and returns the
// full patterns in registration order.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		patterns = registerGroup(mux, "", group, patterns)
	}
	return patterns
}

// Patterns flattens groups into their full "METHOD /path" patterns without registering them.
func Patterns(groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		patterns = collect("", group, patterns)
	}
	return patterns
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group, patterns []string) []string {
	start := len(patterns)
	patterns = collect(parentPrefix, group, patterns)
	for i, route := range group.flatten() {
		mux.HandleFunc(patterns[start+i], route.Handler)
	}
	return patterns
}

func collect(parentPrefix string, group Group, patterns []string) []string {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		patterns = append(patterns, route.pattern(fullPrefix))
	}
	for _, child := range group.Children {
		patterns = collect(fullPrefix, child, patterns)
	}
	return patterns
}

func (g Group) flatten() []Route {
	out := append([]Route(nil), g.Routes...)
	for _, child := range g.Children {
		out = append(out, child.flatten()...)
	}
	return out
}
