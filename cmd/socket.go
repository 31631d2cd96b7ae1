package cmd

import (
	"context"
	"net"

	"github.com/foomo/keel"
	"github.com/foomo/keel/service"
	"github.com/foomo/recordstore/pkg/dispatch"
	"github.com/foomo/recordstore/pkg/handler"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

func NewSocketCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "socket",
		Short: "Start socket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
			)

			l := svr.Logger()

			pool, err := newPool(cmd, svr, v, l)
			if err != nil {
				return err
			}

			// create socket server
			h := handler.NewSocket(l.Named("inst.handler"), pool, dispatch.New(l))

			// listen on socket
			ln, err := net.Listen("tcp", addressFlag(v))
			if err != nil {
				return err
			}
			ln = netutil.LimitListener(ln, maxConnectionsFlag(v))

			svr.AddServices(
				service.NewGoRoutine(l.Named("go.socket"), "socket", func(ctx context.Context, l *zap.Logger) error {
					stop := context.AfterFunc(ctx, func() {
						_ = ln.Close()
					})
					defer stop()

					l.Info("started listening", zap.String("address", ln.Addr().String()))
					for {
						// this blocks until connection or error
						conn, err := ln.Accept()
						if errors.Is(err, net.ErrClosed) {
							return nil
						} else if err != nil {
							l.Error("could not accept connection", zap.Error(err))
							continue
						}

						// a goroutine handles conn so that the loop can accept other connections
						go func() {
							l.Debug("accepted connection", zap.String("source", conn.RemoteAddr().String()))
							h.Serve(ctx, conn)
							if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
								l.Warn("failed to close connection", zap.Error(err))
							}
						}()
					}
				}),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v, ":8081")
	addMaxConnectionsFlag(flags, v)
	addAreaFlags(flags, v)
	addOtelEnabledFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)

	return cmd
}
