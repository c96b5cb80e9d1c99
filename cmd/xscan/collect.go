package main

import (
	"context"

	"github.com/xiaoshicae/xdocscan"
	"github.com/xiaoshicae/xdocscan/xanalytics"
	"github.com/xiaoshicae/xdocscan/xgin"
	"github.com/xiaoshicae/xdocscan/xlog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

type collectOptions struct {
	Host  string
	Port  int
	Path  string
	Keep  int
	Print bool
}

func newCollectCmd() *cobra.Command {
	opts := &collectOptions{}
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run an HTTP collector for scan analytics events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return xdocscan.RunServer(newCollectServer(opts))
		},
	}
	cmd.Flags().StringVar(&opts.Host, "host", "", "Listen host, defaults to XGin.Host")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Listen port, defaults to XGin.Port")
	cmd.Flags().StringVar(&opts.Path, "path", "/v1/events", "Ingest path")
	cmd.Flags().IntVar(&opts.Keep, "keep", 1000, "Number of recent events kept for the stats endpoint")
	cmd.Flags().BoolVar(&opts.Print, "print", false, "Log every received event")
	return cmd
}

func newCollectServer(opts *collectOptions) *xgin.XGin {
	var handler func(ctx context.Context, env xanalytics.Envelope)
	if opts.Print {
		handler = func(ctx context.Context, env xanalytics.Envelope) {
			xlog.Info(ctx, "[xscan] event=[%s], session=[%s], payload=[%s]", env.Name, env.SessionID, string(env.Payload))
		}
	}
	collector := xanalytics.NewCollector(opts.Path, opts.Keep, handler)

	var ginOpts []xgin.Option
	if opts.Host != "" || opts.Port != 0 {
		c := xgin.GetConfig()
		if opts.Host != "" {
			c.Host = opts.Host
		}
		if opts.Port != 0 {
			c.Port = opts.Port
		}
		ginOpts = append(ginOpts, xgin.WithConfig(c))
	}
	return xgin.New(ginOpts...).WithRouteRegister(func(e *gin.Engine) { collector.Register(e) })
}
