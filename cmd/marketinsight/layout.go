package main

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-marketinsight/components/dashboard"
	"github.com/goliatone/go-marketinsight/pkg/analytics"
)

type layoutCmd struct {
	Check layoutCheckCmd `cmd:"" help:"Check that a manifest's placements resolve and validate."`
}

type layoutCheckCmd struct {
	Manifest string `arg:"" type:"existingfile" help:"Widget manifest (YAML or JSON)."`
}

func (cmd *layoutCheckCmd) Run(a *app) error {
	client, err := newAnalyticsClient(a.cfg)
	if err != nil {
		return err
	}
	layoutCfg := a.cfg.Layout
	layoutCfg.Manifest = cmd.Manifest
	registry, layout, err := newRegistry(layoutCfg, analytics.NewSnapshotRepository(client))
	if err != nil {
		return err
	}
	if err := layout.Check(registry, dashboard.NewJSONSchemaValidator()); err != nil {
		return err
	}
	return printLayout(a, layout)
}

func printLayout(a *app, layout dashboard.Layout) error {
	views := make([]string, 0, len(layout))
	for view := range layout {
		views = append(views, string(view))
	}
	sort.Strings(views)
	for _, view := range views {
		widgets := layout.Widgets(dashboard.View(view))
		if _, err := fmt.Fprintf(a.out, "%s (%d widgets)\n", view, len(widgets)); err != nil {
			return err
		}
		for _, w := range widgets {
			fmt.Fprintf(a.out, "  - %s\n", w.DefinitionID)
		}
	}
	return nil
}
