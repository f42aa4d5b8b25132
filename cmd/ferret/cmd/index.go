package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferret-go/ferret/internal/index"
	"github.com/ferret-go/ferret/internal/store"
)

func newIndexCmd() *cobra.Command {
	var file string
	var boost float64

	cmd := &cobra.Command{
		Use:   "index [field=value ...]",
		Short: "Add documents to the index",
		Long: `Add documents to the index.

A document is given either as field=value arguments, or as JSON
objects (one per line) read from --file or standard input.

Examples:
  ferret index field="quick brown fox" cat=cat1/sub1
  ferret index --file docs.jsonl
  cat docs.jsonl | ferret index --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd.Context())
			s, err := store.Open(cfg.Index.Path)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) > 0 {
				doc, err := docFromArgs(args, float32(boost))
				if err != nil {
					return err
				}
				id, err := s.AddDocument(doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added document %d\n", id)
				return nil
			}

			var in io.Reader
			switch file {
			case "", "-":
				in = cmd.InOrStdin()
			default:
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}
			n, err := addJSONDocs(s, in)
			if err != nil {
				return err
			}
			slog.Info("indexing complete", slog.Int("documents", n))
			fmt.Fprintf(cmd.OutOrStdout(), "added %d documents\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON lines file to index ('-' for stdin)")
	cmd.Flags().Float64Var(&boost, "boost", 1.0, "Document boost for field=value documents")
	return cmd
}

func docFromArgs(args []string, boost float32) (*index.Document, error) {
	doc := index.NewDocument()
	doc.Boost = boost
	for _, arg := range args {
		name, value, ok := splitOnce(arg, '=')
		if !ok {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		doc.Add(name, value)
	}
	return doc, nil
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], i > 0
		}
	}
	return "", "", false
}

// addJSONDocs reads one JSON object per line. String values become
// fields; a numeric "_boost" member sets the document boost.
func addJSONDocs(s *store.Store, in io.Reader) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	n := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			return n, fmt.Errorf("line %d: invalid JSON: %w", n+1, err)
		}
		doc := index.NewDocument()
		for name, v := range raw {
			switch val := v.(type) {
			case string:
				doc.Add(name, val)
			case float64:
				if name == "_boost" {
					doc.Boost = float32(val)
				} else {
					doc.Add(name, fmt.Sprintf("%g", val))
				}
			default:
				return n, fmt.Errorf("line %d: field %q must be a string or number", n+1, name)
			}
		}
		if _, err := s.AddDocument(doc); err != nil {
			return n, err
		}
		n++
	}
	return n, scanner.Err()
}
