package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Export every published post as static HTML",
	Long: `build renders every post the CMS lists and writes the static site to
the output directory: post/<slug>/index.html, 404.html, sitemap.xml, feed.xml
and the stylesheet. Posts without a publication date are skipped. The page store is
warmed as a side effect, so a server started afterwards serves the exported
pages without rebuilding them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		defer app.Close()

		res, err := app.Export(cmd.Context(), buildOut)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d pages to %s (%d pending, %d skipped)\n",
			len(res.Written), buildOut, len(res.Pending), len(res.Skipped))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "dist", "output directory")
}
