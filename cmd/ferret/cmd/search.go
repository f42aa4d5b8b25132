package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ferret-go/ferret/internal/search"
	"github.com/ferret-go/ferret/internal/store"
)

type searchOptions struct {
	limit  int
	first  int
	sortBy []string
	format string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a ranked query against the index",
		Long: `Run a ranked query against the index.

Clauses are whitespace separated and may be prefixed with '+'
(required) or '-' (prohibited), and field-qualified with 'field:'.

Examples:
  ferret search word2
  ferret search '+field:word1 -field:word3'
  ferret search 'cat:cat1/sub*' --limit 5
  ferret search '"quick brown fox"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 = configured default)")
	cmd.Flags().IntVar(&opts.first, "first", 0, "Rank of the first result, for paging")
	cmd.Flags().StringSliceVar(&opts.sortBy, "sort", nil, "Sort by field instead of score (suffix '!' for descending)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runSearch(cmd *cobra.Command, input string, opts searchOptions) error {
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

	limit := opts.limit
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}
	searchOpts := &search.SearchOptions{FirstDoc: opts.first, NumDocs: limit}
	if len(opts.sortBy) > 0 {
		var fields []search.SortField
		for _, f := range opts.sortBy {
			reverse := strings.HasSuffix(f, "!")
			fields = append(fields, search.SortField{Field: strings.TrimSuffix(f, "!"), Reverse: reverse})
		}
		searchOpts.Sort = search.NewSort(fields...)
	}

	searcher := search.NewSearcher(reader, search.WithLogger(slog.Default()))
	top, err := searcher.Search(q, searchOpts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(top)
	}

	fmt.Fprintf(out, "query: %s\n", q.String(cfg.Search.DefaultField))
	fmt.Fprintf(out, "%d hits", top.TotalHits)
	if top.TotalHits > 0 {
		fmt.Fprintf(out, " (max score %.4f)", top.MaxScore)
	}
	fmt.Fprintln(out)
	for rank, h := range top.Hits {
		fmt.Fprintf(out, "%3d. doc %d  score %.4f\n", opts.first+rank+1, h.Doc, h.Score)
		if doc, err := searcher.Document(h.Doc); err == nil {
			for _, f := range doc.Fields {
				fmt.Fprintf(out, "     %s: %s\n", f.Name, f.Value)
			}
		}
	}
	return nil
}
