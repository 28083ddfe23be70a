package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume-mailer",
	Short: "Send personalized job applications to HR contacts",
	Long: `A command line tool that emails a personalized application, with your
resume attached, to every HR contact listed in a CSV file.`,
}

// Execute runs the root command and exits with status 1 on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// GetRoot returns the root command so packages can register subcommands
func GetRoot() *cobra.Command {
	return rootCmd
}

// SetInfo overrides the name and descriptions shown in help output
func SetInfo(use, short, long string) {
	rootCmd.Use = use
	rootCmd.Short = short
	rootCmd.Long = long
}
