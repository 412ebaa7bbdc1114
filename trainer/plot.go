package trainer

import "math"
import "os"
import "path/filepath"

import "github.com/pkg/errors"
import "gonum.org/v1/plot"
import "gonum.org/v1/plot/plotter"
import "gonum.org/v1/plot/plotutil"
import "gonum.org/v1/plot/vg"

// HistoryPlot is the file PlotHistory writes into its directory.
const HistoryPlot = "history.png"

// PlotHistory draws every metric of h against the epoch number into
// dir/history.png. Nothing is written for a history without metrics.
func PlotHistory(h *History, dir string) error {
	p := plot.New()
	p.Title.Text = "Training run " + h.RunID
	p.X.Label.Text = "epoch"
	p.Legend.Top = true

	var lines int
	for i, name := range h.Names() {
		var pts plotter.XYs
		for epoch, v := range h.Metric(name) {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				pts = append(pts, plotter.XY{X: float64(epoch + 1), Y: v})
			}
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "plotting %s", name)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(name, line)
		lines++
	}
	if lines == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, filepath.Join(dir, HistoryPlot))
}
