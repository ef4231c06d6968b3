package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
	"github.com/matzehuels/dsgviz/pkg/source/mongo"
)

// importOpts holds the flags of the import command.
type importOpts struct {
	uri        string
	database   string
	collection string
	name       string
}

// importCommand creates the import command, which stores graph documents
// in MongoDB for later use as mongodb:// graph references.
func (c *CLI) importCommand() *cobra.Command {
	opts := importOpts{uri: "mongodb://localhost:27017"}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a graph document in MongoDB",
		Long: `Store a graph document in MongoDB under a name. Existing documents with the
same name are replaced. The name defaults to the file name without extension.

Stored graphs can be loaded by any command as mongodb://host/<database>#<name>.`,
		Example: `  dsgviz import office.json
  dsgviz import scan.json --name lab --uri mongodb://db:27017 --database robots`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.uri, "uri", opts.uri, "MongoDB connection URI")
	cmd.Flags().StringVar(&opts.database, "database", mongo.DefaultDatabase, "database name")
	cmd.Flags().StringVar(&opts.collection, "collection", mongo.DefaultCollection, "collection name")
	cmd.Flags().StringVar(&opts.name, "name", "", "document name (defaults to the file name)")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, path string, opts importOpts) error {
	name := opts.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if name == "" || name == "." {
		return errors.New(errors.ErrCodeInvalidInput, "cannot derive a document name from %q; pass --name", path)
	}

	g, err := scenegraph.ReadFile(path)
	if err != nil {
		return err
	}

	var store *mongo.Store
	err = withSpinner(ctx, out, "Connecting to MongoDB", func(ctx context.Context) error {
		var err error
		store, err = mongo.Connect(ctx, opts.uri, mongo.Options{Database: opts.database, Collection: opts.collection})
		return err
	})
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	prog := newProgress(c.Logger)
	if err := store.Save(ctx, name, g); err != nil {
		return err
	}
	prog.done("saved graph", "name", name, "nodes", g.NumNodes())

	printSuccess("Imported %s as %s", path, StyleHighlight.Render(name))
	printDetail("%d nodes · %d edges · %d layers", g.NumNodes(), g.NumEdges(), len(g.Layers()))
	printNextStep("Serve it", "dsgviz serve --graph "+strings.TrimSuffix(opts.uri, "/")+"/"+opts.database+"#"+name)
	return nil
}
