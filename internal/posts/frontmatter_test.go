package posts

import (
	"reflect"
	"testing"
)

func TestParseFrontMatter_NoBlock(t *testing.T) {
	meta, body, err := ParseFrontMatter([]byte("# Just a heading\n\ntext\n"))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if len(meta) != 0 {
		t.Errorf("expected empty meta, got %v", meta)
	}
	if body != "# Just a heading\n\ntext\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontMatter_YAML(t *testing.T) {
	raw := "---\ntitle: Hello\ndate: 2024-01-01\ntags: [foo, bar]\n---\n# Hi\nworld"
	meta, body, err := ParseFrontMatter([]byte(raw))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if meta["title"] != "Hello" {
		t.Errorf("title = %v", meta["title"])
	}
	if body != "# Hi\nworld" {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontMatter_TOML(t *testing.T) {
	raw := "+++\ntitle = \"From TOML\"\ncategory = \"notes\"\n+++\nbody"
	meta, body, err := ParseFrontMatter([]byte(raw))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if meta["title"] != "From TOML" || meta["category"] != "notes" {
		t.Errorf("meta = %v", meta)
	}
	if body != "body" {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontMatter_Malformed(t *testing.T) {
	raw := "---\ntitle: [unclosed\n---\nbody"
	if _, _, err := ParseFrontMatter([]byte(raw)); err == nil {
		t.Fatal("expected error for malformed front matter")
	}
}

func TestMarshalFrontMatter_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		meta PostMeta
		body string
	}{
		{
			name: "full",
			meta: PostMeta{
				Title:       "Hello: a post",
				Date:        "2024-01-01",
				Description: "first post",
				Tags:        []string{"foo", "bar baz"},
				Category:    "notes",
			},
			body: "# Hi\n\nworld\n",
		},
		{
			name: "minimal",
			meta: PostMeta{Title: "Only title", Tags: []string{}},
			body: "",
		},
		{
			name: "unicode",
			meta: PostMeta{Title: "你好", Date: "2023-05-06", Tags: []string{"随笔"}, Category: "生活"},
			body: "正文\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := MarshalFrontMatter(tc.meta, tc.body)
			if err != nil {
				t.Fatalf("MarshalFrontMatter: %v", err)
			}
			meta, body, err := ParseFrontMatter(raw)
			if err != nil {
				t.Fatalf("ParseFrontMatter: %v\n%s", err, raw)
			}
			if got := NormalizeMeta(meta); !reflect.DeepEqual(got, tc.meta) {
				t.Errorf("meta = %#v, want %#v", got, tc.meta)
			}
			if body != tc.body {
				t.Errorf("body = %q, want %q", body, tc.body)
			}
		})
	}
}
