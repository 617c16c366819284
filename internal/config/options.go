package config

import (
	flags "github.com/jessevdk/go-flags"
)

// Command names.
const (
	CommandHealthEndpoint = "health-endpoint"
	CommandNginxRedirect  = "nginx-redirect"
	CommandServerTokens   = "server-tokens"
	CommandHSTS           = "hsts"
	CommandNginxSecurity  = "nginx-security"
	CommandRun            = "run"
	CommandList           = "list"
)

// Options is the full command line: the shared Config plus one struct per
// subcommand. Empty values fall back to the job defaults.
type Options struct {
	Config

	HealthEndpoint HealthEndpointCommand `command:"health-endpoint" description:"Keep one health route in front of the API catch-all"`
	NginxRedirect  NginxRedirectCommand  `command:"nginx-redirect" description:"Rewrite the HTTPS redirect target of the port 80 server blocks"`
	ServerTokens   ServerTokensCommand   `command:"server-tokens" description:"Make sure server_tokens is switched off"`
	HSTS           HSTSCommand           `command:"hsts" description:"Set the Strict-Transport-Security header value"`
	NginxSecurity  NginxSecurityCommand  `command:"nginx-security" description:"Run server-tokens and hsts"`
	Run            RunCommand            `command:"run" description:"Run a YAML plan, or every job with its defaults"`
	List           ListCommand           `command:"list" description:"List the available jobs"`
}

// HealthEndpointCommand holds the health-endpoint flags.
type HealthEndpointCommand struct {
	Path   string `long:"path" description:"JavaScript server file"`
	Route  string `long:"route" description:"Health route path"`
	Anchor string `long:"anchor" description:"Path of the app.all catch-all the route goes in front of"`
}

// Spec converts the flags into a job spec.
func (c *HealthEndpointCommand) Spec() JobSpec {
	return newSpec(CommandHealthEndpoint, c.Path, "route", c.Route, "anchor", c.Anchor)
}

// NginxRedirectCommand holds the nginx-redirect flags.
type NginxRedirectCommand struct {
	Path string `long:"path" description:"nginx site file"`
	Port string `long:"port" description:"Listen port of the server blocks to patch"`
	From string `long:"from" description:"Redirect target to replace"`
	To   string `long:"to" description:"New redirect target"`
}

// Spec converts the flags into a job spec.
func (c *NginxRedirectCommand) Spec() JobSpec {
	return newSpec(CommandNginxRedirect, c.Path, "port", c.Port, "from", c.From, "to", c.To)
}

// ServerTokensCommand holds the server-tokens flags.
type ServerTokensCommand struct {
	Path  string `long:"path" description:"nginx main configuration file"`
	Value string `long:"value" description:"server_tokens value"`
}

// Spec converts the flags into a job spec.
func (c *ServerTokensCommand) Spec() JobSpec {
	return newSpec(CommandServerTokens, c.Path, "value", c.Value)
}

// HSTSCommand holds the hsts flags.
type HSTSCommand struct {
	Path  string `long:"path" description:"nginx site file"`
	Value string `long:"value" description:"Strict-Transport-Security header value"`
}

// Spec converts the flags into a job spec.
func (c *HSTSCommand) Spec() JobSpec {
	return newSpec(CommandHSTS, c.Path, "value", c.Value)
}

// NginxSecurityCommand patches two files, so it takes a path for each.
type NginxSecurityCommand struct {
	MainPath    string `long:"main-path" description:"nginx main configuration file"`
	SitePath    string `long:"site-path" description:"nginx site file"`
	TokensValue string `long:"tokens-value" description:"server_tokens value"`
	HSTSValue   string `long:"hsts-value" description:"Strict-Transport-Security header value"`
}

// Spec converts the flags into a composite job spec. Step parameters are
// prefixed with the step name.
func (c *NginxSecurityCommand) Spec() JobSpec {
	return newSpec(CommandNginxSecurity, "",
		CommandServerTokens+".path", c.MainPath,
		CommandServerTokens+".value", c.TokensValue,
		CommandHSTS+".path", c.SitePath,
		CommandHSTS+".value", c.HSTSValue,
	)
}

// RunCommand holds the run flags.
type RunCommand struct {
	Plan string `short:"f" long:"plan" description:"YAML plan file"`
}

// ListCommand takes no flags.
type ListCommand struct{}

// newSpec builds a JobSpec from key/value pairs, dropping empty values.
func newSpec(name, path string, kv ...string) JobSpec {
	spec := JobSpec{Name: name, Path: path}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		if spec.Params == nil {
			spec.Params = map[string]string{}
		}
		spec.Params[kv[i]] = kv[i+1]
	}
	return spec
}

// ParseArgs parses the command line and returns the options together with
// the name of the selected command. Parse errors, including a request for
// help, are returned as *flags.Error.
func ParseArgs(args []string) (*Options, string, error) {
	opts := &Options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "confpatch"
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, "", err
	}
	name := ""
	if parser.Active != nil {
		name = parser.Active.Name
	}
	return opts, name, nil
}

// IsHelp reports whether err is go-flags' help request.
func IsHelp(err error) bool {
	flagsErr, ok := err.(*flags.Error)
	return ok && flagsErr.Type == flags.ErrHelp
}
