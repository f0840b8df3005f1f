package main

import (
	"fmt"
	"os"

	"github.com/harunnryd/deskflow/cmd/deskflow/runtime"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive request session",
	Long:  `Talk to the service desk assistant from the terminal. Type /help inside the session for commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		lang, _ := cmd.Flags().GetString("lang")

		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			if err := r.Start(); err != nil {
				return fmt.Errorf("failed to start runtime components: %w", err)
			}

			signals := NewSignalHandler(r.Ctx, r.Cancel)
			signals.Start()
			defer signals.Stop()

			repl := runtime.NewREPL(r, os.Stdin, os.Stdout, userID)
			if lang != "" {
				r.Users.SetLanguage(userID, lang)
			}
			return repl.Start()
		})
	},
}

func init() {
	chatCmd.Flags().StringP("user", "u", defaultUser(), "requester id")
	chatCmd.Flags().String("lang", "", "reply language (en, fr)")
	rootCmd.AddCommand(chatCmd)
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli-user"
}
