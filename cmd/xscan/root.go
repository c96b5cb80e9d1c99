package main

import (
	"os"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

const configLocationEnvKey = "APP_CONFIG_LOCATION"

func newRootCmd() *cobra.Command {
	var configLocation string

	root := &cobra.Command{
		Use:           "xscan",
		Short:         "Document scan pipeline tools",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// xconfig 按 参数 > 环境变量 的顺序查找配置文件
			if configLocation != "" {
				return os.Setenv(configLocationEnvKey, configLocation)
			}
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().StringVar(&configLocation, "app.config.location", "", "Path to application.yml")

	root.AddCommand(newReplayCmd(), newCollectCmd())
	return root
}
