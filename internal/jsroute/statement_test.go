package jsroute

import (
	"errors"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	src := `'use strict'
const express = require('express') // framework
const app = express();

app.use(cors({
  origin: '*',
}));

/* routes */
app.get('/api/items', async (req, res) => {
  const rows = await db
    .select()
    .from('items');
  res.json(rows);
});

if (process.env.DEBUG)
  app.use(morgan('dev'));

try {
  start();
} catch (err) {
  console.error(err)
}
app.listen(3000); app.emit('ready');
`
	stmts, err := Split(src)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	want := []struct {
		start, end int
		prefix     string
	}{
		{1, 1, "'use strict'"},
		{2, 2, "constexpress=require('express')"},
		{3, 3, "constapp=express();"},
		{5, 7, "app.use(cors({"},
		{10, 15, "app.get('/api/items',async(req,res)=>{"},
		{17, 18, "if(process.env.DEBUG)app.use(morgan('dev'));"},
		{20, 24, "try{start();}catch(err){"},
		{25, 25, "app.listen(3000);"},
		{25, 25, "app.emit('ready');"},
	}
	if len(stmts) != len(want) {
		for _, s := range stmts {
			t.Logf("%d-%d %s", s.StartLine, s.EndLine, s.Compact)
		}
		t.Fatalf("expected %d statements, got %d", len(want), len(stmts))
	}
	for i, w := range want {
		s := stmts[i]
		if s.StartLine != w.start || s.EndLine != w.end {
			t.Errorf("statement %d: lines %d-%d, want %d-%d", i, s.StartLine, s.EndLine, w.start, w.end)
		}
		if !s.HasPrefix(w.prefix) {
			t.Errorf("statement %d: %q does not start with %q", i, s.Compact, w.prefix)
		}
	}
	if !sharesLine(stmts, 7) || sharesLine(stmts, 6) {
		t.Errorf("unexpected shared line detection")
	}
}

func TestSplitErrors(t *testing.T) {
	tests := map[string]string{
		"unterminated string":  "app.get('/api/health, (req, res) => {\n});\n",
		"unterminated comment": "/* open\napp.listen(3000);\n",
		"unbalanced":           "app.listen(3000));\n",
		"unclosed":             "app.get('/x', () => {\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Split(src)
			var syntax *SyntaxError
			if !errors.As(err, &syntax) {
				t.Fatalf("expected SyntaxError, got %v", err)
			}
		})
	}
}
