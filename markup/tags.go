package markup

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// InjectTo names the place in the document where tag has to be inserted.
type InjectTo string

const (
	InjectToHead        InjectTo = "head"
	InjectToHeadPrepend InjectTo = "head-prepend"
	InjectToBody        InjectTo = "body"
	InjectToBodyPrepend InjectTo = "body-prepend"
)

// InjectionTag describes content to be inserted into a page by the host when
// direct splicing is not applicable. Attribute values are either string or
// bool (boolean attribute, present when true).
type InjectionTag struct {
	Tag      string
	Attrs    map[string]any
	Text     string
	Children []InjectionTag
	InjectTo InjectTo
}

type jsonTag struct {
	Tag      string         `json:"tag"`
	Attrs    map[string]any `json:"attrs,omitempty"`
	Children any            `json:"children"`
	InjectTo InjectTo       `json:"injectTo,omitempty"`
}

// MarshalJSON produces build tool tag descriptor: children is either text or
// array of nested descriptors.
func (t InjectionTag) MarshalJSON() ([]byte, error) {
	jt := jsonTag{Tag: t.Tag, Attrs: t.Attrs, InjectTo: t.InjectTo, Children: t.Text}
	if len(t.Children) > 0 {
		jt.Children = t.Children
	}
	return json.Marshal(jt)
}

// UnmarshalJSON is the reverse of MarshalJSON.
func (t *InjectionTag) UnmarshalJSON(data []byte) error {
	var jt struct {
		Tag      string          `json:"tag"`
		Attrs    map[string]any  `json:"attrs"`
		Children json.RawMessage `json:"children"`
		InjectTo InjectTo        `json:"injectTo"`
	}
	if err := json.Unmarshal(data, &jt); err != nil {
		return err
	}
	*t = InjectionTag{Tag: jt.Tag, Attrs: jt.Attrs, InjectTo: jt.InjectTo}
	if len(jt.Children) == 0 || string(jt.Children) == "null" {
		return nil
	}
	if jt.Children[0] == '[' {
		return json.Unmarshal(jt.Children, &t.Children)
	}
	return json.Unmarshal(jt.Children, &t.Text)
}

// Node builds detached html node for the tag.
func (t InjectionTag) Node() *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     t.Tag,
		DataAtom: atom.Lookup([]byte(t.Tag)),
	}

	keys := make([]string, 0, len(t.Attrs))
	for k := range t.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		switch v := t.Attrs[k].(type) {
		case bool:
			if v {
				n.Attr = append(n.Attr, html.Attribute{Key: k})
			}
		case string:
			n.Attr = append(n.Attr, html.Attribute{Key: k, Val: v})
		case nil:
		default:
			n.Attr = append(n.Attr, html.Attribute{Key: k, Val: fmt.Sprint(v)})
		}
	}

	if len(t.Text) > 0 {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: t.Text})
	}
	for _, c := range t.Children {
		n.AppendChild(c.Node())
	}
	return n
}

// Render serializes the tag as html.
func (t InjectionTag) Render() (string, error) {
	var b strings.Builder
	if err := html.Render(&b, t.Node()); err != nil {
		return "", fmt.Errorf("unable to render %s tag: %w", t.Tag, err)
	}
	return b.String(), nil
}
