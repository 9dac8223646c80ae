package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

var pathsJSON bool

type pathEntry struct {
	Slug string `json:"slug"`
	Path string `json:"path"`
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List the post paths to pre-render",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		defer app.Close()
		if err := app.Setup(); err != nil {
			return err
		}

		slugs, err := app.Repo.ListAllSlugs(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if pathsJSON {
			entries := make([]pathEntry, 0, len(slugs))
			for _, slug := range slugs {
				entries = append(entries, pathEntry{Slug: slug, Path: spacetraveling.PostPath(slug)})
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		for _, slug := range slugs {
			fmt.Fprintln(out, spacetraveling.PostPath(slug))
		}
		return nil
	},
}

func init() {
	pathsCmd.Flags().BoolVar(&pathsJSON, "json", false, "print JSON objects instead of one path per line")
}
