package router

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

const anyMethod = "*"

type node struct {
	static    map[string]*node
	param     *node
	paramKey  string
	wildcard  *node
	endpoints map[string]endpoint
}

type endpoint struct {
	pattern string
	handler http.Handler
}

type pathParam struct {
	key, value string
}

func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func (n *node) insert(method, pattern string, h http.Handler) error {
	segs := splitPath(pattern)
	cur := n
	for i, seg := range segs {
		switch {
		case seg == "*":
			if i != len(segs)-1 {
				return fmt.Errorf("%w: %q: wildcard must be the last segment", ErrInvalidPattern, pattern)
			}
			if cur.wildcard == nil {
				cur.wildcard = &node{}
			}
			cur = cur.wildcard
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			key := seg[1 : len(seg)-1]
			if key == "" || strings.ContainsAny(key, "{}*") {
				return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
			}
			if cur.param == nil {
				cur.param = &node{paramKey: key}
			} else if cur.param.paramKey != key {
				return fmt.Errorf("%w: {%s} and {%s} in %q", ErrParamConflict, cur.param.paramKey, key, pattern)
			}
			cur = cur.param
		case strings.ContainsAny(seg, "{}*"):
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		default:
			if cur.static == nil {
				cur.static = make(map[string]*node)
			}
			child, ok := cur.static[seg]
			if !ok {
				child = &node{}
				cur.static[seg] = child
			}
			cur = child
		}
	}

	if cur.endpoints == nil {
		cur.endpoints = make(map[string]endpoint)
	}
	if _, ok := cur.endpoints[method]; ok {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, pattern)
	}
	cur.endpoints[method] = endpoint{pattern: pattern, handler: h}
	return nil
}

// find returns the node serving segs, trying static, parameter and wildcard
// children in that order.
func (n *node) find(segs []string, params []pathParam) (*node, []pathParam) {
	if len(segs) == 0 {
		if len(n.endpoints) > 0 {
			return n, params
		}
		if n.wildcard != nil {
			return n.wildcard, append(params, pathParam{key: "*"})
		}
		return nil, nil
	}

	seg, rest := segs[0], segs[1:]
	if child, ok := n.static[seg]; ok {
		if found, p := child.find(rest, params); found != nil {
			return found, p
		}
	}
	if n.param != nil && seg != "" {
		if found, p := n.param.find(rest, append(params, pathParam{key: n.param.paramKey, value: seg})); found != nil {
			return found, p
		}
	}
	if n.wildcard != nil {
		return n.wildcard, append(params, pathParam{key: "*", value: strings.Join(segs, "/")})
	}
	return nil, nil
}

func (n *node) lookup(method string) (endpoint, bool) {
	if ep, ok := n.endpoints[method]; ok {
		return ep, true
	}
	ep, ok := n.endpoints[anyMethod]
	return ep, ok
}

func (n *node) allowed() []string {
	methods := make([]string, 0, len(n.endpoints))
	for m := range n.endpoints {
		if m != anyMethod {
			methods = append(methods, m)
		}
	}
	slices.Sort(methods)
	return methods
}

func (n *node) routes(out []Route) []Route {
	for method, ep := range n.endpoints {
		out = append(out, Route{Method: method, Pattern: ep.pattern})
	}
	for _, child := range n.static {
		out = child.routes(out)
	}
	if n.param != nil {
		out = n.param.routes(out)
	}
	if n.wildcard != nil {
		out = n.wildcard.routes(out)
	}
	return out
}
