package cmd

import (
	"context"
	"fmt"
	"time"

	keelhttp "github.com/foomo/keel/net/http"
	"github.com/foomo/recordstore/client"
	"github.com/foomo/recordstore/pkg/area"
	"github.com/foomo/recordstore/pkg/collection"
	"github.com/foomo/recordstore/pkg/dispatch"
	"github.com/foomo/recordstore/pkg/handler"
	"github.com/foomo/recordstore/pkg/utils"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func NewClientCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "client <read|create|update|delete|quota> <collection> [record json]",
		Short: "Call a running server",
		Args:  cobra.RangeArgs(2, 3),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				comps := []string{string(handler.RouteQuota)}
				for _, m := range dispatch.Methods {
					comps = append(comps, string(m))
				}
				return comps, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			l := zap.L().Named("client")

			kind, err := parseOptionalKind(defaultAreaFlag(v))
			if err != nil {
				return err
			}

			c, err := newClient(transportFlag(v), serverFlag(v), timeoutFlag(v))
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag(v))
			defer cancel()

			var result any
			if args[0] == string(handler.RouteQuota) {
				result, err = c.Quota(ctx, args[1], kind)
			} else {
				target := dispatch.Target{Collection: args[1], Area: kind}
				if len(args) == 3 {
					var record collection.Attributes
					if err := json.UnmarshalFromString(args[2], &record); err != nil {
						return errors.Wrap(err, "invalid record json")
					}
					target.Record = record
				}
				d := dispatch.New(l, dispatch.WithRemote(c))
				result, err = d.Sync(ctx, args[0], target, dispatch.Options{}, nil).Wait(ctx)
			}
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	flags := cmd.Flags()
	addServerFlag(flags, v)
	addTransportFlag(flags, v)
	addTimeoutFlag(flags, v)
	flags.String("area", "", "Area kind of the collection (local, sync, session), empty for the server default")
	_ = v.BindPFlag("default_area", flags.Lookup("area"))

	return cmd
}

func newClient(transport, server string, timeout time.Duration) (*client.Client, error) {
	switch transport {
	case "http":
		if !utils.IsValidURL(server) {
			return nil, errors.Errorf("invalid server URL %q", server)
		}
		return client.New(client.NewHTTPTransport(server, keelhttp.NewHTTPClient(
			keelhttp.HTTPClientWithTimeout(timeout),
			keelhttp.HTTPClientWithTelemetry(),
		))), nil
	case "socket":
		return client.New(client.NewSocketTransport(server, 1, timeout)), nil
	default:
		return nil, errors.Errorf("unknown transport %q (supported: http, socket)", transport)
	}
}

func parseOptionalKind(v string) (area.Kind, error) {
	if v == "" {
		return "", nil
	}
	return area.ParseKind(v)
}
