package scenegraph

import (
	"path/filepath"
	"testing"

	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
)

const sampleDocument = `{
  "layers": [
    {
      "id": 2,
      "nodes": [
        {"id": "O1", "kind": "object", "position": [0, 0, 0], "color": [255, 0, 0],
         "bounding_box": {"type": "obb", "min": [-1, -1, -1], "max": [1, 1, 1], "center": [0, 0, 0], "rotation": [0, 0, 0, 1]}},
        {"id": "O2", "kind": "semantic", "position": [1, 0, 0], "color": [0, 255, 0]}
      ],
      "edges": [{"source": "O1", "target": "O2"}]
    },
    {
      "id": 3,
      "nodes": [{"id": "p1", "kind": "place", "position": [0, 0, 1], "distance": 0.8}]
    }
  ],
  "interlayer_edges": [{"source": "p1", "target": "O1"}],
  "mesh_samples": [{"node": "O1", "points": [[0, 0, -1], [0, 1, -1]]}]
}`

func TestUnmarshal(t *testing.T) {
	g, err := Unmarshal([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if g.NumNodes() != 3 {
		t.Errorf("NumNodes() = %d, want 3", g.NumNodes())
	}
	if g.NumEdges() != 2 {
		t.Errorf("NumEdges() = %d, want 2", g.NumEdges())
	}

	n, ok := g.Node(Symbol('O', 1))
	if !ok {
		t.Fatal("O1 not found")
	}
	obj, err := ObjectOf(n.Attributes)
	if err != nil {
		t.Fatalf("ObjectOf(O1): %v", err)
	}
	if obj.BoundingBox.Type != BoxOriented {
		t.Errorf("box type = %v, want obb", obj.BoundingBox.Type)
	}
	if obj.BoundingBox.Rotation != (Quaternion{W: 0, X: 0, Y: 0, Z: 1}) {
		t.Errorf("rotation = %v", obj.BoundingBox.Rotation)
	}
	if obj.Color != Red {
		t.Errorf("color = %v, want red", obj.Color)
	}

	p, _ := g.Node(Symbol('p', 1))
	place, err := PlaceOf(p.Attributes)
	if err != nil || place.Distance != 0.8 {
		t.Errorf("PlaceOf(p1) = %v, %v", place, err)
	}

	if len(g.MeshSamples(Symbol('O', 1))) != 2 {
		t.Errorf("mesh samples = %d, want 2", len(g.MeshSamples(Symbol('O', 1))))
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad json", `{"layers": [`},
		{"unknown kind", `{"layers": [{"id": 2, "nodes": [{"id": 1, "kind": "mesh", "position": [0,0,0]}]}]}`},
		{"dangling edge", `{"layers": [{"id": 2, "nodes": [{"id": 1, "kind": "base", "position": [0,0,0]}], "edges": [{"source": 1, "target": 2}]}]}`},
		{"samples for unknown node", `{"layers": [], "mesh_samples": [{"node": 4, "points": [[0,0,0]]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.doc))
			if err == nil {
				t.Fatal("Unmarshal() error = nil, want error")
			}
			if !dsgerrors.Is(err, dsgerrors.ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", dsgerrors.GetCode(err), dsgerrors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	g, err := Unmarshal([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	path := filepath.Join(t.TempDir(), "dsg.json")
	if err := WriteFile(g, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if back.NumNodes() != g.NumNodes() || back.NumEdges() != g.NumEdges() {
		t.Errorf("round trip lost data: %d/%d nodes, %d/%d edges",
			back.NumNodes(), g.NumNodes(), back.NumEdges(), g.NumEdges())
	}
	if len(back.MeshSamples(Symbol('O', 1))) != 2 {
		t.Error("round trip lost mesh samples")
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	if !dsgerrors.Is(err, dsgerrors.ErrCodeFileNotFound) {
		t.Errorf("ReadFile(missing) code = %v, want %v", dsgerrors.GetCode(err), dsgerrors.ErrCodeFileNotFound)
	}
}
