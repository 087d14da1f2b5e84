package main

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	grove "github.com/groveml/grove"
	"github.com/groveml/grove/pkg/errors"
)

// saveLeafHistogram renders the distribution of leaf contributions across
// the whole ensemble. Skewed or clipped distributions are usually the first
// hint that a model was trained with a bad learning rate.
func saveLeafHistogram(model *grove.Model, path string) error {
	values := model.Forest().LeafValues()
	if len(values) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "grove: model has no leaves to plot")
	}

	p := plot.New()
	p.Title.Text = "Leaf value distribution"
	p.X.Label.Text = "leaf value"
	p.Y.Label.Text = "count"

	hist, err := plotter.NewHist(plotter.Values(values), 32)
	if err != nil {
		return errors.Wrap(err, "grove: building histogram")
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "grove: saving histogram")
	}
	return nil
}
