// Package source resolves graph references to scene graphs.
//
// A reference is one of:
//   - "-": a JSON document on standard input
//   - "mongodb://host:27017/<database>#<name>": a snapshot in MongoDB
//     (also "mongodb+srv://"); the database defaults to "dsgviz"
//   - anything else: a path to a JSON document
package source

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
	"github.com/matzehuels/dsgviz/pkg/source/mongo"
)

// Kind classifies a reference.
type Kind int

const (
	KindFile Kind = iota
	KindStdin
	KindMongo
)

// Ref is a parsed graph reference.
type Ref struct {
	Kind Kind

	// Path is the file path for KindFile.
	Path string

	// URI, Database, and Name locate a MongoDB snapshot. URI has the
	// fragment removed and is passed to the driver unchanged.
	URI      string
	Database string
	Name     string
}

// ParseRef classifies s.
func ParseRef(s string) (Ref, error) {
	switch {
	case s == "":
		return Ref{}, errors.New(errors.ErrCodeInvalidInput, "graph reference cannot be empty")
	case s == "-":
		return Ref{Kind: KindStdin}, nil
	case strings.HasPrefix(s, "mongodb://"), strings.HasPrefix(s, "mongodb+srv://"):
		return parseMongo(s)
	default:
		return Ref{Kind: KindFile, Path: s}, nil
	}
}

func parseMongo(s string) (Ref, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Ref{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %q", s)
	}
	if u.Fragment == "" {
		return Ref{}, errors.New(errors.ErrCodeInvalidInput, "mongodb reference needs a #<graph> name")
	}
	ref := Ref{Kind: KindMongo, Name: u.Fragment, Database: strings.Trim(u.Path, "/")}
	if ref.Database == "" {
		ref.Database = mongo.DefaultDatabase
	}
	u.Fragment = ""
	ref.URI = u.String()
	return ref, nil
}

// Load reads the graph named by ref.
func Load(ctx context.Context, ref string) (*scenegraph.Graph, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	return r.Load(ctx)
}

// Load reads the referenced graph.
func (r Ref) Load(ctx context.Context) (*scenegraph.Graph, error) {
	switch r.Kind {
	case KindStdin:
		return scenegraph.Read(os.Stdin)
	case KindMongo:
		store, err := mongo.Connect(ctx, r.URI, mongo.Options{Database: r.Database})
		if err != nil {
			return nil, err
		}
		defer store.Close(context.Background())
		return store.Load(ctx, r.Name)
	default:
		return scenegraph.ReadFile(r.Path)
	}
}
