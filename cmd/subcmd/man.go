package subcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func init() {
	ManPages.Flags().StringVar(&manDir, "dir", "man", "directory to write the pages to")
}

var (
	manDir string

	ManPages = &cobra.Command{
		Use:    "man",
		Short:  "Generate the man pages.",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(manDir, 0755); err != nil {
				return fmt.Errorf("error creating %q: %w", manDir, err)
			}
			return doc.GenManTree(cmd.Root(), &doc.GenManHeader{
				Title:   "NLCODEC",
				Section: "1",
				Source:  "scitags",
			}, manDir)
		},
	}
)
