package job

import (
	"confpatch/internal/config"
	"confpatch/internal/jsroute"
	"confpatch/internal/nginx"
	"confpatch/internal/patch"
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultServerJS  = "/var/www/tomo-app/backend/server.js"
	defaultSiteConf  = "/etc/nginx/sites-enabled/tomo-sa.com"
	defaultNginxConf = "/etc/nginx/nginx.conf"
)

func init() {
	register(&Definition{
		Name:        config.CommandHealthEndpoint,
		Description: "Keep one health route in front of the API catch-all",
		DefaultPath: defaultServerJS,
		Params:      map[string]string{"route": jsroute.DefaultRoute, "anchor": jsroute.DefaultAnchor},
		validate:    validateHealth,
		build: func(path string, params map[string]string) Job {
			return &healthEndpoint{path: path, route: &jsroute.HealthRoute{Route: params["route"], Anchor: params["anchor"]}}
		},
	})
	register(&Definition{
		Name:        config.CommandNginxRedirect,
		Description: "Rewrite the HTTPS redirect target of the port 80 server blocks",
		DefaultPath: defaultSiteConf,
		Params: map[string]string{
			"port": "80",
			"from": "https://$server_name$request_uri",
			"to":   "https://$host$request_uri",
		},
		validate: validateRedirect,
		build: func(path string, params map[string]string) Job {
			return &nginxRedirect{path: path, redirect: &nginx.Redirect{Port: params["port"], From: params["from"], To: params["to"]}}
		},
	})
	register(&Definition{
		Name:        config.CommandServerTokens,
		Description: "Make sure server_tokens is switched off",
		DefaultPath: defaultNginxConf,
		Params:      map[string]string{"value": "off"},
		validate:    validateTokens,
		build: func(path string, params map[string]string) Job {
			return &serverTokens{path: path, tokens: &nginx.ServerTokens{Value: params["value"]}}
		},
	})
	register(&Definition{
		Name:        config.CommandHSTS,
		Description: "Set the Strict-Transport-Security header value",
		DefaultPath: defaultSiteConf,
		Params:      map[string]string{"value": nginx.DefaultHSTS},
		validate:    validateHSTS,
		build: func(path string, params map[string]string) Job {
			return &hsts{path: path, header: &nginx.HSTS{Value: params["value"]}}
		},
	})
	register(&Definition{
		Name:        config.CommandNginxSecurity,
		Description: "Run server-tokens and hsts",
		Params: map[string]string{
			config.CommandServerTokens + ".path":  "",
			config.CommandServerTokens + ".value": "",
			config.CommandHSTS + ".path":          "",
			config.CommandHSTS + ".value":         "",
		},
		Steps: []string{config.CommandServerTokens, config.CommandHSTS},
		StepMessages: map[string][]string{
			config.CommandServerTokens: {"server_tokens fixed"},
		},
	})
}

func validateHealth(params map[string]string) error {
	route := params["route"]
	if !strings.HasPrefix(route, "/") || strings.ContainsAny(route, "'\"` \t") {
		return fmt.Errorf("route must be a path starting with / and without quotes or spaces: %q", route)
	}
	if anchor := params["anchor"]; anchor == "" || strings.ContainsAny(anchor, "'\"`") {
		return fmt.Errorf("anchor must be a non-empty path without quotes: %q", anchor)
	}
	return nil
}

func validateRedirect(params map[string]string) error {
	port, err := strconv.Atoi(params["port"])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535: %q", params["port"])
	}
	for _, key := range []string{"from", "to"} {
		if v := params[key]; v == "" || strings.ContainsAny(v, " \t;") {
			return fmt.Errorf("%s must be a single nginx argument: %q", key, v)
		}
	}
	return nil
}

func validateTokens(params map[string]string) error {
	switch params["value"] {
	case "on", "off", "build":
		return nil
	}
	return fmt.Errorf("value must be on, off or build: %q", params["value"])
}

func validateHSTS(params map[string]string) error {
	v := params["value"]
	if strings.TrimSpace(v) == "" || strings.ContainsAny(v, "\"\n") {
		return fmt.Errorf("value must be non-empty and must not contain double quotes: %q", v)
	}
	return nil
}

type healthEndpoint struct {
	path  string
	route *jsroute.HealthRoute
}

func (j *healthEndpoint) Name() string { return config.CommandHealthEndpoint }
func (j *healthEndpoint) Path() string { return j.path }

func (j *healthEndpoint) Apply(doc *patch.Document) (*Outcome, error) {
	res, err := j.route.Apply(doc)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Messages: []string{"Health endpoint fixed successfully"}, Fallback: res.Fallback}
	if !res.AnchorFound {
		out.Notes = append(out.Notes, "no app.all catch-all found, file left unchanged")
	}
	if len(res.Removed) > 0 {
		out.Notes = append(out.Notes, fmt.Sprintf("removed health route(s) starting at line(s) %s", joinInts(res.Removed)))
	}
	if res.Fallback {
		out.Notes = append(out.Notes, "source could not be split into statements, used line scan")
	}
	return out, nil
}

type nginxRedirect struct {
	path     string
	redirect *nginx.Redirect
}

func (j *nginxRedirect) Name() string { return config.CommandNginxRedirect }
func (j *nginxRedirect) Path() string { return j.path }

func (j *nginxRedirect) Apply(doc *patch.Document) (*Outcome, error) {
	res, err := j.redirect.Apply(doc)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Fallback: res.Fallback}
	for _, line := range res.Lines {
		out.Messages = append(out.Messages, fmt.Sprintf("Fixed line %d", line))
	}
	out.Messages = append(out.Messages, "Done")
	if len(res.Lines) == 0 {
		out.Notes = append(out.Notes, fmt.Sprintf("no return to %s in a server block listening on %s", j.redirect.From, j.redirect.Port))
	}
	if res.Fallback {
		out.Notes = append(out.Notes, "configuration did not parse, used line scan")
	}
	return out, nil
}

type serverTokens struct {
	path   string
	tokens *nginx.ServerTokens
}

func (j *serverTokens) Name() string { return config.CommandServerTokens }
func (j *serverTokens) Path() string { return j.path }

func (j *serverTokens) Apply(doc *patch.Document) (*Outcome, error) {
	res, err := j.tokens.Apply(doc)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		Messages: []string{fmt.Sprintf("server_tokens %s configured", j.tokens.Value)},
		Fallback: res.Fallback,
	}
	switch {
	case res.NoHTTP:
		out.Notes = append(out.Notes, "no http block found, server_tokens not inserted")
	case res.InsertedAt > 0:
		out.Notes = append(out.Notes, fmt.Sprintf("inserted server_tokens at line %d", res.InsertedAt))
	case len(res.Rewritten) > 0:
		out.Notes = append(out.Notes, fmt.Sprintf("rewrote server_tokens at line(s) %s", joinInts(res.Rewritten)))
	}
	if res.Uncommented {
		out.Notes = append(out.Notes, "uncommented server_tokens")
	}
	if res.Fallback {
		out.Notes = append(out.Notes, "configuration did not parse, used line scan")
	}
	return out, nil
}

type hsts struct {
	path   string
	header *nginx.HSTS
}

func (j *hsts) Name() string { return config.CommandHSTS }
func (j *hsts) Path() string { return j.path }

func (j *hsts) Apply(doc *patch.Document) (*Outcome, error) {
	n := j.header.Apply(doc)
	out := &Outcome{Messages: []string{"HSTS fixed"}}
	if n == 0 {
		out.Notes = append(out.Notes, "no Strict-Transport-Security header found")
	}
	return out, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
