package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPlaylistsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "playlists",
		Aliases: []string{"ls"},
		Short:   "List playlists in the rekordbox library",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _, err := ctx.openSource()
			if err != nil {
				return err
			}
			summaries, err := source.Playlists(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, summaries)
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No playlists found")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			total := 0
			for _, s := range summaries {
				rows = append(rows, []string{s.Name, s.Folder, strconv.Itoa(s.TrackCount)})
				total += s.TrackCount
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Folder", "Tracks"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
				[]string{fmt.Sprintf("%d playlists", len(summaries)), "", strconv.Itoa(total)},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print playlists as JSON")
	return cmd
}
