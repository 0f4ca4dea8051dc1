package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	renderSets   []string
	renderEvents bool
)

var renderCmd = &cobra.Command{
	Use:   "render [fixture]",
	Short: "Render a fixture and print the markup",
	Long: `Render reconciles the fixture's records into a collection view attached
to an in-memory HTML document and prints the view's markup.

Without an argument the nearest viewtree.yaml is used.

Examples:
  viewtree render todos.yaml
  viewtree render --set 3:done=true --events`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringArrayVar(&renderSets, "set", nil, "patch a record attribute before rendering (id:attr=value)")
	renderCmd.Flags().BoolVar(&renderEvents, "events", false, "print the lifecycle event log")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	log, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	path, err := fixturePath(args)
	if err != nil {
		return err
	}
	res, err := loadFixture(path, renderSets)
	if err != nil {
		return err
	}
	s, err := newSession(res, log)
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, s.markup())
	if renderEvents {
		for _, line := range s.drainEvents() {
			fmt.Fprintln(out, line)
		}
	}
	return nil
}
