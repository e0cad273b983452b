package llmdispatch

import (
	"context"

	"github.com/viant/llmdispatch/genai/credential"
)

// CredentialsCmd prints which managed credential keys are set, never their values.
type CredentialsCmd struct{}

func (c *CredentialsCmd) Execute(_ []string) error {
	ctx := context.Background()
	env, err := loadEnvironment(ctx)
	if err != nil {
		return err
	}
	return printJSON(credential.StatusOf(ctx, env.config.Credentials()))
}
