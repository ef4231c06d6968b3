package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dsgviz/pkg/config"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// layersCommand creates the layers command, which tabulates layer configs.
func (c *CLI) layersCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "layers",
		Short: "Show the per-layer configuration",
		Example: `  dsgviz layers
  dsgviz layers --config dsgviz.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := c.loadConfig(configPath)
			if err != nil {
				return err
			}
			printLayers(file.Snapshot)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (.toml, .yaml)")
	return cmd
}

func printLayers(snap config.Snapshot) {
	ids := make([]scenegraph.LayerID, 0, len(snap.Layers))
	for id := range snap.Layers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		lc := snap.Layers[id]
		rows = append(rows, []string{
			layerLabel(id),
			flag(lc.Visualize),
			fmt.Sprintf("%.1f", lc.ZOffsetScale),
			fmt.Sprintf("%.2f", lc.MarkerScale),
			fmt.Sprintf("%.2f", lc.MarkerAlpha),
			flag(lc.UseLabel),
			flag(lc.UseBoundingBox),
			fmt.Sprint(lc.IntralayerEdgeInsertionSkip),
			fmt.Sprint(lc.InterlayerEdgeInsertionSkip),
		})
	}

	fmt.Fprintln(out, StyleTitle.Render("Layers"))
	printTable([]string{"Layer", "Visible", "Z", "Scale", "Alpha", "Labels", "Boxes", "Intra skip", "Inter skip"}, rows)

	vc := snap.Visualizer
	printKeyValue("layer z step", fmt.Sprintf("%.2f", vc.LayerZStep))
	printKeyValue("collapse layers", flag(vc.CollapseLayers))
	printKeyValue("places by distance", flag(vc.ColorPlacesByDistance))
	printKeyValue("interlayer edge policy", string(vc.InterlayerEdgePolicy.Resolved()))
}

// layerLabel renders "3 places" for well-known layers and the bare id otherwise.
func layerLabel(id scenegraph.LayerID) string {
	n := fmt.Sprint(int(id))
	if name := id.String(); name != n {
		return n + " " + name
	}
	return n
}
