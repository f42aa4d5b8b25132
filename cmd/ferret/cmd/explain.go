package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ferret-go/ferret/internal/search"
	"github.com/ferret-go/ferret/internal/store"
)

func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <query> <doc>",
		Short: "Explain how a document would be scored",
		Long: `Explain how a document would be scored by a query.

Prints the factor tree behind the score: term frequency, inverse
document frequency, field norms and query normalization.

Example:
  ferret explain field:word2 4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("doc must be an integer, got %q", args[1])
			}
			return runExplain(cmd, args[0], doc)
		},
	}
	return cmd
}

func runExplain(cmd *cobra.Command, input string, doc int) error {
	cfg := configFrom(cmd.Context())

	q, err := parseQuery(input, cfg.Search.DefaultField)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Index.Path, store.ReadOnly())
	if err != nil {
		return err
	}
	defer s.Close()

	idx, err := s.BuildMemoryIndex()
	if err != nil {
		return err
	}
	reader := idx.Reader()
	defer reader.Close()

	searcher := search.NewSearcher(reader)
	expl, err := searcher.Explain(q, doc)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), strings.TrimRight(expl.String(), "\n")+"\n")
	return nil
}
