package vdom

// SVGNamespace is the namespace of SVG elements.
const SVGNamespace = "http://www.w3.org/2000/svg"

// El creates an element with an arbitrary tag.
// Arguments can be: nil, Attr, []Attr, Attrs, *VNode, []*VNode, string.
func El(tag string, args ...any) *VNode {
	return createElement("", tag, args)
}

// ElNS creates an element in namespace ns.
func ElNS(ns, tag string, args ...any) *VNode {
	return createElement(ns, tag, args)
}

func createElement(ns, tag string, args []any) *VNode {
	node := &VNode{
		Kind:      KindElement,
		Tag:       tag,
		Namespace: ns,
	}
	for _, arg := range args {
		node.apply(arg)
	}
	return node
}

// apply adds one constructor argument to the node.
func (v *VNode) apply(arg any) {
	switch a := arg.(type) {
	case nil:
		// Ignore nil (allows conditional attributes)
	case Attr:
		v.setAttr(a)
	case []Attr:
		for _, attr := range a {
			v.setAttr(attr)
		}
	case Attrs:
		for k, val := range a {
			v.setAttr(Attr{Key: k, Value: val})
		}
	case *VNode:
		if a != nil {
			v.Children = append(v.Children, a)
		}
	case []*VNode:
		for _, child := range a {
			if child != nil {
				v.Children = append(v.Children, child)
			}
		}
	case [][]*VNode:
		for _, group := range a {
			v.apply(group)
		}
	case string:
		// Shorthand for text node
		v.Children = append(v.Children, Text(a))
	}
}

// setAttr stores an attribute. The key attribute sets the node's Key
// instead of being rendered.
func (v *VNode) setAttr(a Attr) {
	if a.Key == "" {
		return
	}
	if a.Key == "key" {
		if s, ok := a.Value.(string); ok {
			v.Key = s
		}
		return
	}
	if v.Attrs == nil {
		v.Attrs = make(Attrs)
	}
	v.Attrs[a.Key] = a.Value
}

// Document sections

func Header(args ...any) *VNode  { return createElement("", "header", args) }
func Footer(args ...any) *VNode  { return createElement("", "footer", args) }
func Main(args ...any) *VNode    { return createElement("", "main", args) }
func Nav(args ...any) *VNode     { return createElement("", "nav", args) }
func Section(args ...any) *VNode { return createElement("", "section", args) }
func Article(args ...any) *VNode { return createElement("", "article", args) }
func H1(args ...any) *VNode      { return createElement("", "h1", args) }
func H2(args ...any) *VNode      { return createElement("", "h2", args) }
func H3(args ...any) *VNode      { return createElement("", "h3", args) }

// Text content

func Div(args ...any) *VNode  { return createElement("", "div", args) }
func P(args ...any) *VNode    { return createElement("", "p", args) }
func Span(args ...any) *VNode { return createElement("", "span", args) }
func Pre(args ...any) *VNode  { return createElement("", "pre", args) }
func Ul(args ...any) *VNode   { return createElement("", "ul", args) }
func Ol(args ...any) *VNode   { return createElement("", "ol", args) }
func Li(args ...any) *VNode   { return createElement("", "li", args) }
func A(args ...any) *VNode    { return createElement("", "a", args) }
func Em(args ...any) *VNode   { return createElement("", "em", args) }
func Code(args ...any) *VNode { return createElement("", "code", args) }

func Strong(args ...any) *VNode { return createElement("", "strong", args) }

// Forms

func Form(args ...any) *VNode   { return createElement("", "form", args) }
func Button(args ...any) *VNode { return createElement("", "button", args) }
func Input(args ...any) *VNode  { return createElement("", "input", args) }
func Label(args ...any) *VNode  { return createElement("", "label", args) }

// Tables

func Table(args ...any) *VNode { return createElement("", "table", args) }
func Tbody(args ...any) *VNode { return createElement("", "tbody", args) }
func Tr(args ...any) *VNode    { return createElement("", "tr", args) }
func Td(args ...any) *VNode    { return createElement("", "td", args) }
func Th(args ...any) *VNode    { return createElement("", "th", args) }

// SVG

func Svg(args ...any) *VNode    { return createElement(SVGNamespace, "svg", args) }
func Circle(args ...any) *VNode { return createElement(SVGNamespace, "circle", args) }
func Path(args ...any) *VNode   { return createElement(SVGNamespace, "path", args) }
