package cmd

import (
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause <true|false>",
	Short: "set the guardian pause flag",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		svcs := provideServices(database)
		paused := cast.ToBool(args[0])
		if err := svcs.system.SetPause(cmd.Context(), principalFlag(cmd), paused); err != nil {
			cmd.PrintErrln("set pause error:", err)
			return
		}

		cmd.Println("paused:", paused)
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
	pauseCmd.Flags().String("principal", "", "acting principal")
}
