package commands

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/actingweb/actingweb-sub001/internal/app"
	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

var (
	dispatchActor    string
	dispatchPayload  string
	dispatchAuthType string
	dispatchToken    string
	dispatchPeer     string
	dispatchMode     string
	dispatchTimeout  string
	dispatchJSON     bool
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <category> <name>",
	Short: "Dispatch one event against the configured hooks",
	Long: `Dispatch one event and print its result.

The category is one of method, action, property, callback, app_callback,
lifecycle or subscription (plural forms are accepted). The payload is
parsed as JSON when possible and passed as a string otherwise.`,
	Example: `  actingweb-hooks dispatch method echo --payload '{"hello": "world"}'
  actingweb-hooks dispatch lifecycle actor_created --actor a1`,
	Args: cobra.ExactArgs(2),
	RunE: runDispatch,
}

func init() {
	dispatchCmd.Flags().StringVarP(&dispatchActor, "actor", "a", "", "Actor ID")
	dispatchCmd.Flags().StringVarP(&dispatchPayload, "payload", "d", "", "Event payload (JSON or plain text)")
	dispatchCmd.Flags().StringVar(&dispatchAuthType, "auth", "", "Auth type (anonymous|basic|oauth|trust)")
	dispatchCmd.Flags().StringVar(&dispatchToken, "token", "", "Auth token")
	dispatchCmd.Flags().StringVar(&dispatchPeer, "peer", "", "Peer ID for trust auth")
	dispatchCmd.Flags().StringVar(&dispatchMode, "mode", "", "Dispatch mode (blocking|cooperative)")
	dispatchCmd.Flags().StringVar(&dispatchTimeout, "timeout", "", "Dispatch deadline, e.g. 5s")
	dispatchCmd.Flags().BoolVar(&dispatchJSON, "json", false, "Print the result as JSON")
}

func runDispatch(cmd *cobra.Command, args []string) error {
	category, err := types.ParseCategory(args[0])
	if err != nil {
		return err
	}
	req := hook.Request{
		Category: category,
		Name:     args[1],
		Payload:  parsePayload(dispatchPayload),
	}
	if dispatchActor != "" {
		req.Actor = &types.Actor{ID: dispatchActor}
	}
	if req.Auth, err = parseAuthFlags(dispatchAuthType, dispatchToken, dispatchPeer); err != nil {
		return err
	}

	_, cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	applyDispatchFlags(cfg, dispatchMode, dispatchTimeout)

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	if err := a.Start(cmd.Context()); err != nil {
		return err
	}

	res := a.Dispatch(cmd.Context(), req)
	r := newRenderer(cmd.OutOrStdout(), noColor)
	if dispatchJSON {
		return r.ResultJSON(res)
	}
	r.Result(req, res)
	return nil
}

func parsePayload(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func parseAuthFlags(authType, token, peer string) (*types.Auth, error) {
	auth := &types.Auth{Token: token, PeerID: peer}
	if strings.TrimSpace(authType) == "" {
		switch {
		case peer != "":
			auth.Type = types.AuthTrust
		case token != "":
			auth.Type = types.AuthOAuth
		default:
			auth.Type = types.AuthAnonymous
		}
		return auth, nil
	}
	t, err := types.ParseAuthType(authType)
	if err != nil {
		return nil, err
	}
	auth.Type = t
	return auth, nil
}
