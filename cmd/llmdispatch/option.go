package llmdispatch

// Options is the root command that groups sub-commands.  The struct tags are
// interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Config      string          `short:"f" long:"config" description:"config YAML path (any afs URL)"`
	Version     bool            `short:"v" long:"version" description:"print version"`
	Dispatch    *DispatchCmd    `command:"dispatch" description:"Send one prompt to a model"`
	Probe       *ProbeCmd       `command:"probe" description:"Classify models as enabled or disabled"`
	Endpoint    *EndpointCmd    `command:"endpoint" description:"Manage custom model endpoints"`
	Credentials *CredentialsCmd `command:"credentials" description:"Show which credential keys are set"`
}

// Init instantiates the sub-command referenced by the first argument so that
// flags.Parse can populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "dispatch":
		o.Dispatch = &DispatchCmd{}
	case "probe":
		o.Probe = &ProbeCmd{}
	case "endpoint":
		o.Endpoint = &EndpointCmd{}
	case "credentials":
		o.Credentials = &CredentialsCmd{}
	}
}
