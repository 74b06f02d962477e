package main

import (
	"sort"
	"strings"

	"github.com/vango-dev/sliderbind/pkg/dom"
	"github.com/vango-dev/sliderbind/pkg/server"
)

type sliderDef struct {
	id, label string
	attrs     map[string]string
}

func demoPages() map[string]server.Page {
	pages := []server.Page{
		{
			Name:  "demo",
			Title: "Sliders",
			Build: sliderPage("Sliders", []sliderDef{
				{"price", "Price", map[string]string{
					"data-from": "0", "data-to": "500", "data-step": "5",
					"data-format": "$#,##0", "value": "150",
				}},
				{"range", "Range", map[string]string{
					"data-from": "0", "data-to": "100", "value": "20;80",
				}},
				{"ratio", "Ratio", map[string]string{
					"data-from": "0", "data-to": "1", "data-step": "0.01",
					"data-format": "0.00", "value": "0.5",
				}},
			}),
		},
		{
			Name:  "ranges",
			Title: "Ranges",
			Build: sliderPage("Ranges", []sliderDef{
				{"budget", "Budget", map[string]string{
					"data-from": "1000", "data-to": "100000", "data-step": "500",
					"data-locale": "de", "data-dimension": " €", "value": "10000;40000",
				}},
				{"temperature", "Temperature", map[string]string{
					"data-from": "-20", "data-to": "40", "data-step": "0.5",
					"data-dimension": "°C", "value": "18;24",
				}},
			}),
		},
	}

	out := make(map[string]server.Page, len(pages))
	for _, p := range pages {
		out[p.Name] = p
	}
	return out
}

func sliderPage(heading string, sliders []sliderDef) func(*dom.Document) error {
	return func(doc *dom.Document) error {
		root := doc.Root()
		root.AppendChild(doc.CreateElement("h1", doc.CreateText(heading)))
		for _, s := range sliders {
			input := doc.CreateElement("input").SetAttr("id", s.id).AddClass("jslider")
			names := make([]string, 0, len(s.attrs))
			for name := range s.attrs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				input.SetAttr(name, s.attrs[name])
			}
			root.AppendChild(doc.CreateElement("div",
				doc.CreateElement("label", doc.CreateText(s.label)).SetAttr("for", s.id),
				input,
			).AddClass("field"))
		}
		return nil
	}
}

func pageList() string {
	names := make([]string, 0, 2)
	for name := range demoPages() {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
