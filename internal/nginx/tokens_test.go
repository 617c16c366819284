package nginx

import (
	"confpatch/internal/patch"
	"strings"
	"testing"
)

func applyTokens(t *testing.T, in string) (*patch.Document, *ServerTokensResult) {
	t.Helper()
	doc := patch.ParseString(in)
	res, err := (&ServerTokens{}).Apply(doc)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return doc, res
}

func TestServerTokensUncomment(t *testing.T) {
	in := "user www-data;\nhttp {\n    sendfile on;\n    # server_tokens off;\n    include /etc/nginx/sites-enabled/*;\n}\n"
	doc, res := applyTokens(t, in)
	if !res.Uncommented || res.InsertedAt != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := "user www-data;\nhttp {\n    sendfile on;\n    server_tokens off;\n    include /etc/nginx/sites-enabled/*;\n}\n"
	if doc.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", doc.String(), want)
	}
}

func TestServerTokensInsertWhenMissing(t *testing.T) {
	in := "events {\n    worker_connections 768;\n}\nhttp {\n    sendfile on;\n}\n"
	doc, res := applyTokens(t, in)
	if res.InsertedAt != 5 {
		t.Fatalf("expected insert at line 5, got %+v", res)
	}
	if doc.Lines[4] != "    server_tokens off;" || doc.Lines[3] != "http {" {
		t.Fatalf("unexpected layout:\n%s", doc.String())
	}
}

func TestServerTokensConverges(t *testing.T) {
	inputs := map[string]string{
		"commented": "http {\n    # server_tokens off;\n}\n",
		"missing":   "http {\n    sendfile on;\n}\n",
		"active":    "http {\n    server_tokens off;\n}\n",
		"both":      "http {\n    # server_tokens off;\n    server_tokens off;\n}\n",
		"other":     "http {\n    server_tokens on;\n}\n",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			doc, _ := applyTokens(t, in)
			if n := countActive(doc); n != 1 {
				t.Fatalf("expected one active directive, got %d:\n%s", n, doc.String())
			}
			once := doc.String()
			res, err := (&ServerTokens{}).Apply(doc)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if res.Changed() || doc.String() != once {
				t.Fatalf("second run changed the file: %+v", res)
			}
		})
	}
}

func TestServerTokensActiveUntouched(t *testing.T) {
	in := "http {\n    # server_tokens off;\n    server_tokens off;\n}\n"
	doc, res := applyTokens(t, in)
	if res.Changed() || doc.String() != in {
		t.Fatalf("expected no change, got %+v:\n%s", res, doc.String())
	}
}

func TestServerTokensRewriteValue(t *testing.T) {
	doc, res := applyTokens(t, "http {\n\tserver_tokens build; # keep\n}\n")
	if len(res.Rewritten) != 1 || res.Rewritten[0] != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if doc.Lines[1] != "\tserver_tokens off; # keep" {
		t.Fatalf("unexpected line %q", doc.Lines[1])
	}
}

func TestServerTokensRewriteMultiLine(t *testing.T) {
	doc, res := applyTokens(t, "http {\n    server_tokens\n        on;\n}\n")
	if len(res.Rewritten) != 1 || res.Rewritten[0] != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got, want := doc.String(), "http {\n    server_tokens\n        off;\n}\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestServerTokensRewriteKeepsTrailingComment(t *testing.T) {
	doc, _ := applyTokens(t, "http {\n    server_tokens on; # was server_tokens build;\n}\n")
	if doc.Lines[1] != "    server_tokens off; # was server_tokens build;" {
		t.Fatalf("unexpected line %q", doc.Lines[1])
	}
}

func TestServerTokensUncommentIndents(t *testing.T) {
	doc, res := applyTokens(t, "http {\n#server_tokens off;\n}\n")
	if !res.Uncommented {
		t.Fatalf("unexpected result: %+v", res)
	}
	if doc.Lines[1] != "    server_tokens off;" {
		t.Fatalf("unexpected line %q", doc.Lines[1])
	}
}

func TestServerTokensMixedLineEndings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"rewrite after crlf line",
			"http {\n    sendfile on;\r\n    server_tokens on;\n}\n",
			"http {\n    sendfile on;\r\n    server_tokens off;\n}\n",
		},
		{
			"insert inside http",
			"events {\n}\nhttp {\r\n    sendfile on;\r\n}\r\n",
			"events {\n}\nhttp {\r\n    server_tokens off;\n    sendfile on;\r\n}\r\n",
		},
		{
			"uncomment crlf line",
			"http {\n    # server_tokens off;\r\n}\n",
			"http {\n    server_tokens off;\r\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, res := applyTokens(t, tt.in)
			if res.Fallback {
				t.Fatalf("unexpected fallback: %+v", res)
			}
			if got := doc.String(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServerTokensSingleLineHTTP(t *testing.T) {
	doc, res := applyTokens(t, "http { sendfile on; }\n")
	if res.InsertedAt != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if doc.Lines[0] != "http { server_tokens off; sendfile on; }" {
		t.Fatalf("unexpected line %q", doc.Lines[0])
	}
}

func TestServerTokensNoHTTP(t *testing.T) {
	in := "events {\n}\n"
	doc, res := applyTokens(t, in)
	if !res.NoHTTP || res.Changed() || doc.String() != in {
		t.Fatalf("expected untouched file, got %+v", res)
	}
}

func TestServerTokensFallback(t *testing.T) {
	in := "http {\n    sendfile on;\n"
	doc, res := applyTokens(t, in)
	if !res.Fallback || res.InsertedAt != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if doc.String() != "http {\n    server_tokens off;\n    sendfile on;\n" {
		t.Fatalf("unexpected output:\n%s", doc.String())
	}
}

func countActive(doc *patch.Document) int {
	n := 0
	for _, line := range doc.Lines {
		if strings.HasPrefix(strings.TrimSpace(line), "server_tokens ") {
			n++
		}
	}
	return n
}
