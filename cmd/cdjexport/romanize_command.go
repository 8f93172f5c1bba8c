package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cdjexport/internal/naming"
	"cdjexport/internal/services"
)

type romanizedName struct {
	Input    string `json:"input"`
	Romaji   string `json:"romaji"`
	FileName string `json:"file_name"`
}

func newRomanizeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "romanize <name>...",
		Short:   "Preview the file names an export would produce",
		Example: `  cdjexport romanize "夜に駆ける.mp3" "ドライフラワー.flac"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			translit, err := newTransliterator()
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "romaji", "init", "load reading dictionary", err)
			}
			namer := naming.NewNamer(translit, naming.RulesFromConfig(cfg.Device), logger)

			results := make([]romanizedName, 0, len(args))
			for i, arg := range args {
				results = append(results, romanizedName{
					Input:    arg,
					Romaji:   strings.TrimSpace(translit.Romanize(arg)),
					FileName: namer.FileName(arg, i+1),
				})
			}
			if jsonOutput {
				return writeJSON(cmd, results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Input, r.Romaji, r.FileName})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Input", "Romaji", "File name"},
				rows,
				nil,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}
