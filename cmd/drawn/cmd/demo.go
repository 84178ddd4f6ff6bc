package cmd

import (
	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/layout"
	"github.com/go-drift/drawn/pkg/scene"
	"github.com/go-drift/drawn/pkg/style"
)

var cardStyle = &style.Style{
	Name: "card",
	Setters: []style.Setter{
		style.Width(180),
		style.Height(120),
		style.Margin(graphics.UniformThickness(16)),
		style.Padding(graphics.UniformThickness(12)),
		style.Clip(true),
	},
}

var chipStyle = &style.Style{
	Name: "chip",
	Setters: []style.Setter{
		style.Height(24),
		style.HorizontalAlign(layout.AlignFill),
		style.VerticalAlign(layout.AlignEnd),
		style.Background(graphics.RGBA(255, 255, 255, 200)),
	},
}

type demoCard struct {
	kind  cache.Kind
	color graphics.Color
	h, v  layout.Alignment
}

var demoCards = []demoCard{
	{cache.None, graphics.RGB(0xE5, 0x39, 0x35), layout.AlignStart, layout.AlignStart},
	{cache.Operations, graphics.RGB(0xFB, 0x8C, 0x00), layout.AlignCenter, layout.AlignStart},
	{cache.Image, graphics.RGB(0xFD, 0xD8, 0x35), layout.AlignEnd, layout.AlignStart},
	{cache.GPU, graphics.RGB(0x43, 0xA0, 0x47), layout.AlignStart, layout.AlignEnd},
	{cache.DoubleBuffered, graphics.RGB(0x1E, 0x88, 0xE5), layout.AlignCenter, layout.AlignEnd},
	{cache.Composite, graphics.RGB(0x8E, 0x24, 0xAA), layout.AlignEnd, layout.AlignEnd},
}

// buildDemo returns a root holding one card per cache kind. The root itself
// uses rootCache.
func buildDemo(rootCache cache.Kind) *scene.Node {
	root := scene.NewNode("root")
	root.Batch(func() {
		root.HorizontalAlign.Set(layout.AlignFill)
		root.VerticalAlign.Set(layout.AlignFill)
		root.Background.Set(graphics.RGB(0x21, 0x21, 0x21))
		root.ClipEffects.Set(true)
		root.Cache.Set(rootCache)
	})

	for _, c := range demoCards {
		card := scene.NewNode(c.kind.String())
		style.Apply(card, cardStyle)
		card.Batch(func() {
			card.HorizontalAlign.Set(c.h)
			card.VerticalAlign.Set(c.v)
			card.Background.Set(c.color)
			card.Cache.Set(c.kind)
		})
		chip := scene.NewNode("chip")
		style.Apply(chip, chipStyle)
		card.AddChild(chip)
		root.AddChild(card)
	}
	return root
}
