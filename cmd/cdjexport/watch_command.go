package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cdjexport/internal/export"
	"cdjexport/internal/logging"
	"cdjexport/internal/services"
	"cdjexport/internal/usbwatch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var playlist string
	var mountPoint string
	var force bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Export a playlist every time a USB stick is mounted",
		Long: `Listen for USB block devices and export the playlist once the stick
appears at the given mount point. Runs until interrupted.`,
		Example: `  cdjexport watch --playlist "Friday" --output /media/usb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			service, err := ctx.exportService()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			req := export.Request{
				Playlist:    strings.TrimSpace(playlist),
				Destination: strings.TrimSpace(mountPoint),
				Force:       force,
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			handler := func(runCtx context.Context, device string) error {
				fmt.Fprintln(out, renderStatusLine("Stick detected", statusInfo, device, colorize))
				report, err := service.Export(runCtx, req)
				if report != nil {
					fmt.Fprintln(out, formatReport(report, colorize))
				}
				if err != nil {
					fmt.Fprintln(out, renderStatusLine("Export", statusError, err.Error(), colorize))
					if hint := services.Hint(err); hint != "" {
						fmt.Fprintln(out, renderStatusLine("Hint", statusInfo, hint, colorize))
					}
				}
				return err
			}

			logger.Info("watching for usb sticks",
				logging.String("mount_point", req.Destination),
				logging.String(logging.FieldPlaylist, req.Playlist),
			)
			fmt.Fprintln(out, renderStatusLine("Watching", statusInfo, req.Destination, colorize))
			err = usbwatch.NewMonitor(cfg, req.Destination, handler, logger).Run(cmd.Context())
			if err != nil && cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&playlist, "playlist", "p", "", "Playlist name, or Folder/Name to disambiguate")
	cmd.Flags().StringVarP(&mountPoint, "output", "o", "", "Mount point the stick appears at")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite files that already exist on the stick")
	_ = cmd.MarkFlagRequired("playlist")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
