package markup

import "testing"

func TestApply(t *testing.T) {
	style := InjectionTag{Tag: "style", Text: "a{}", InjectTo: InjectToHeadPrepend}
	tail := InjectionTag{Tag: "script", Attrs: map[string]any{"src": "a.js"}, InjectTo: InjectToBody}

	tests := []struct {
		name string
		page string
		tags []InjectionTag
		want string
	}{
		{
			name: "full document",
			page: `<html><head lang="en"><title>t</title></head><body class="x"><p></p></body></html>`,
			tags: []InjectionTag{
				style,
				tail,
				{Tag: "meta", Attrs: map[string]any{"name": "n"}, InjectTo: InjectToHead},
				{Tag: "div", InjectTo: InjectToBodyPrepend},
			},
			want: `<html><head lang="en"><style>a{}</style><title>t</title><meta name="n"/></head>` +
				`<body class="x"><div></div><p></p><script src="a.js"></script></body></html>`,
		},
		{
			name: "fragment without head",
			page: `<!doctype html><p>x</p>`,
			tags: []InjectionTag{style, tail},
			want: `<!doctype html><style>a{}</style><p>x</p><script src="a.js"></script>`,
		},
		{
			name: "html without body",
			page: `<HTML><P>x</P></HTML>`,
			tags: []InjectionTag{style, tail},
			want: `<HTML><style>a{}</style><P>x</P><script src="a.js"></script></HTML>`,
		},
		{
			name: "order within placement kept",
			page: `<head></head>`,
			tags: []InjectionTag{
				{Tag: "style", Text: "1", InjectTo: InjectToHead},
				{Tag: "style", Text: "2", InjectTo: InjectToHead},
			},
			want: `<head><style>1</style><style>2</style></head>`,
		},
		{
			name: "default placement",
			page: `<head></head>`,
			tags: []InjectionTag{{Tag: "style", Text: "x"}},
			want: `<head><style>x</style></head>`,
		},
		{
			name: "no tags",
			page: `<p>x</p>`,
			want: `<p>x</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.page, tt.tags)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Apply() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestApply_UnknownPlacement(t *testing.T) {
	_, err := Apply("<p></p>", []InjectionTag{{Tag: "p", InjectTo: "footer"}})
	if err == nil {
		t.Fatal("expected error for unsupported placement")
	}
}
