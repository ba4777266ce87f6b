package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "piface",
	Short: "Face recognition attendance for classrooms",
	Long: `PIFACE records classroom attendance with face recognition.
The server accepts camera frames, matches them against the enrolled
roster and keeps an attendance ledger per class session. The agent
runs next to the classroom camera and feeds frames to the server.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
