package nginx

import (
	"confpatch/internal/patch"
	"testing"
)

func TestHSTSRewrite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"preload dropped",
			`add_header Strict-Transport-Security "max-age=31536000; includeSubDomains; preload";`,
			`add_header Strict-Transport-Security "max-age=86400; includeSubDomains";`,
		},
		{
			"always kept",
			`    add_header  Strict-Transport-Security "max-age=63072000" always;`,
			`    add_header  Strict-Transport-Security "max-age=86400; includeSubDomains" always;`,
		},
		{
			"single quoted",
			`add_header Strict-Transport-Security 'max-age=1';`,
			`add_header Strict-Transport-Security "max-age=86400; includeSubDomains";`,
		},
		{
			"bare value",
			`add_header Strict-Transport-Security max-age=1;`,
			`add_header Strict-Transport-Security "max-age=86400; includeSubDomains";`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := patch.ParseString(tt.in + "\n")
			if n := (&HSTS{}).Apply(doc); n != 1 {
				t.Fatalf("expected 1 rewrite, got %d", n)
			}
			if doc.Lines[0] != tt.want {
				t.Fatalf("got %q, want %q", doc.Lines[0], tt.want)
			}
		})
	}
}

func TestHSTSEveryBlock(t *testing.T) {
	doc := patch.ParseString(siteConfig + "server {\n    add_header Strict-Transport-Security \"max-age=0\";\n}\n")
	if n := (&HSTS{}).Apply(doc); n != 2 {
		t.Fatalf("expected 2 rewrites, got %d", n)
	}
	once := doc.String()
	(&HSTS{}).Apply(doc)
	if doc.String() != once {
		t.Fatalf("second run changed the file")
	}
}

func TestHSTSCustomValueWithDollar(t *testing.T) {
	doc := patch.ParseString("add_header Strict-Transport-Security \"x\";\n")
	(&HSTS{Value: "max-age=$age"}).Apply(doc)
	if doc.Lines[0] != `add_header Strict-Transport-Security "max-age=$age";` {
		t.Fatalf("unexpected line %q", doc.Lines[0])
	}
}

func TestHSTSAbsentHeader(t *testing.T) {
	in := "server {\n    listen 443 ssl;\n}\n"
	doc := patch.ParseString(in)
	if n := (&HSTS{}).Apply(doc); n != 0 || doc.String() != in {
		t.Fatalf("expected no change")
	}
}

func TestHSTSMixedLineEndings(t *testing.T) {
	in := "server {\r\n    listen 443 ssl;\n    add_header Strict-Transport-Security \"max-age=1\" always;\r\n}\n"
	doc := patch.ParseString(in)
	if n := (&HSTS{}).Apply(doc); n != 1 {
		t.Fatalf("expected one rewrite, got %d", n)
	}
	want := "server {\r\n    listen 443 ssl;\n    add_header Strict-Transport-Security \"max-age=86400; includeSubDomains\" always;\r\n}\n"
	if got := doc.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
