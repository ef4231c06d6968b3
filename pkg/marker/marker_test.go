package marker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

func TestColorFrom(t *testing.T) {
	got := ColorFrom(scenegraph.Color{R: 255, G: 0, B: 51}, 0.5)
	want := ColorRGBA{R: 1, G: 0, B: 0.2, A: 0.5}
	if got != want {
		t.Errorf("ColorFrom() = %+v, want %+v", got, want)
	}
}

func TestArrayCountAndStamp(t *testing.T) {
	a := Array{
		{Action: Add},
		NewDelete(3, "layer_2_text"),
		NewDelete(4, "layer_2_text"),
		NewDeleteAll(),
	}

	if a.Count(Add) != 1 || a.Count(Delete) != 2 || a.Count(DeleteAll) != 1 {
		t.Errorf("Count() = %d/%d/%d, want 1/2/1", a.Count(Add), a.Count(Delete), a.Count(DeleteAll))
	}

	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a.Stamp("world", stamp)
	for i, m := range a {
		if m.Header.FrameID != "world" || !m.Header.Stamp.Equal(stamp) {
			t.Errorf("a[%d].Header = %+v", i, m.Header)
		}
	}
}

func TestMarkerJSON(t *testing.T) {
	m := Marker{
		Namespace: "layer_centroids",
		ID:        2,
		Type:      CubeList,
		Action:    Add,
		Pose:      IdentityPose(),
		Scale:     Uniform(0.1),
		Points:    []Point{{X: 1}},
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Marker
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Key() != (Key{Namespace: "layer_centroids", ID: 2}) {
		t.Errorf("Key() = %+v", back.Key())
	}
	if back.Type != CubeList || back.Pose.Orientation.W != 1 || len(back.Points) != 1 {
		t.Errorf("decoded marker = %+v", back)
	}
}
