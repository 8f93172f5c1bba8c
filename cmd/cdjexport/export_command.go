package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cdjexport/internal/export"
	"cdjexport/internal/services"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var req export.Request
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a playlist to a USB stick with romanized file names",
		Example: `  cdjexport export --playlist "Friday" --output /media/usb
  cdjexport export -p "Gigs/2024/Friday" -o /Volumes/CDJ --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Playlist = strings.TrimSpace(req.Playlist)
			req.Destination = strings.TrimSpace(req.Destination)

			service, err := ctx.exportService()
			if err != nil {
				return err
			}
			if !jsonOutput && isTerminal(cmd.ErrOrStderr()) {
				service.SetProgress(export.NewProgressBar(cmd.ErrOrStderr()))
			}

			report, err := service.Export(cmd.Context(), req)
			if report != nil {
				if renderErr := renderReport(cmd, report, jsonOutput); renderErr != nil {
					return renderErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&req.Playlist, "playlist", "p", "", "Playlist name, or Folder/Name to disambiguate")
	cmd.Flags().StringVarP(&req.Destination, "output", "o", "", "Root of the mounted USB stick")
	cmd.Flags().BoolVar(&req.Force, "force", false, "Overwrite files that already exist on the stick")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "Show what would be copied without writing")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	_ = cmd.MarkFlagRequired("playlist")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// exportService wires the library reader, romanizer and exporter.
func (c *commandContext) exportService() (*export.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	source, logger, err := c.openSource()
	if err != nil {
		return nil, err
	}
	translit, err := newTransliterator()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "romaji", "init", "load reading dictionary", err)
	}
	return export.NewService(cfg, source, translit, logger), nil
}

func renderReport(cmd *cobra.Command, report *export.Report, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, report)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, formatReport(report, shouldColorize(out)))
	return nil
}
