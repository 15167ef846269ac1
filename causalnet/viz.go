package causal

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/awalterschulze/gographviz"
)

type dotStage struct {
	id int

	Name          string
	Filters       int
	Steps         int
	Height, Width int
}

// ToDot renders the stage-level architecture as a graphviz document: the
// encoder chain down to the bridge, the decoder chain back up, dashed edges
// for the skip features and the residual baseline.
func (d *Net) ToDot() string {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	g.SetDir(true)

	var buf bytes.Buffer
	var id int
	add := func(name string, filters, steps, h, w int) int {
		s := &dotStage{
			id:      id,
			Name:    name,
			Filters: filters,
			Steps:   steps,
			Height:  h,
			Width:   w,
		}
		stageTmpl.Execute(&buf, s)
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "none",
			"label":    buf.String(),
		}
		g.AddNode("G", fmt.Sprintf("%v", s.id), attrs)
		buf.Reset()
		id++
		return s.id
	}
	chain := func(from, to int) {
		g.AddEdge(fmt.Sprintf("%v", from), fmt.Sprintf("%v", to), true, nil)
	}
	skip := func(from, to int) {
		g.AddEdge(fmt.Sprintf("%v", from), fmt.Sprintf("%v", to), true, map[string]string{"style": "dashed"})
	}

	steps, h, w := d.Window, d.Height, d.Width
	in := add("Window", d.InChannels, steps, h, w)

	prev := in
	taps := make([]int, 0, d.pools())
	for i, k := range d.Widths {
		cur := add(fmt.Sprintf("Enc%d", i), k, steps, h, w)
		chain(prev, cur)
		prev = cur
		if i == len(d.Widths)-1 {
			break
		}
		taps = append(taps, cur)
		steps, h, w = steps/2, h/2, w/2
	}

	for i := len(d.Widths) - 2; i >= 0; i-- {
		h, w = h*2, w*2
		cur := add(fmt.Sprintf("Dec%d", i), d.Widths[i], 1, h, w)
		chain(prev, cur)
		skip(taps[i], cur)
		prev = cur
	}

	out := add("Frame", d.InChannels, 1, d.Height, d.Width)
	chain(prev, out)
	skip(in, out)

	return g.String()
}

const stageTmplRaw = `<
<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0">
<TR><TD>Stage</TD><TD>{{.Name}}</TD></TR>
<TR><TD>Filters</TD><TD>{{.Filters}}</TD></TR>
<TR><TD>Time</TD><TD>{{.Steps}}</TD></TR>
<TR><TD>Size</TD><TD>{{.Height}}x{{.Width}}</TD></TR>
</TABLE>
>
`

var stageTmpl *template.Template

func init() {
	stageTmpl = template.Must(template.New("stage").Parse(stageTmplRaw))
}
