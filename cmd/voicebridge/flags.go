package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type flagBinding struct {
	key  string
	flag string
}

// bindFlags lets a changed flag take precedence over env and config file.
func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings []flagBinding) {
	for _, b := range bindings {
		flag := cmd.Flags().Lookup(b.flag)
		if flag == nil {
			flag = cmd.PersistentFlags().Lookup(b.flag)
		}
		if flag == nil {
			continue
		}
		_ = v.BindPFlag(b.key, flag)
	}
}
