package drawer

import (
	"fmt"
	"html"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-cvpipe/internal/store"
	"github.com/askiada/go-cvpipe/pkg/pipeline/measure"
)

// DOTDrawer draws a pipeline as a Graphviz DOT graph.
type DOTDrawer struct {
	graph graph.Graph[string, string]
	store *store.MemoryStore[string, string]
}

// NewDOTDrawer creates an empty DOT drawer.
func NewDOTDrawer() *DOTDrawer {
	st := store.NewMemoryStore[string, string]()

	return &DOTDrawer{
		store: st,
		graph: graph.NewWithStore(graph.StringHash, graph.Store[string, string](st), graph.Directed(), graph.PreventCycles()),
	}
}

// AddStage adds a stage to the pipeline graph.
func (d *DOTDrawer) AddStage(id, label string) error {
	err := d.graph.AddVertex(id, graph.VertexAttribute("label", label))
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", id)
	}

	return nil
}

// AddLink adds a link between parent and child stages.
func (d *DOTDrawer) AddLink(parentID, childID string) error {
	err := d.graph.AddEdge(parentID, childID)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentID, childID)
	}

	return nil
}

// SetTotalTime sets the duration label of a stage.
func (d *DOTDrawer) SetTotalTime(id string, total time.Duration) error {
	err := d.store.UpdateVertex(id, graph.VertexAttribute("xlabel", "total: "+measure.Round(total).String()))
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	return nil
}

const maxRGB = 240

// AddMeasure labels every measured stage with its average duration and colours
// the link entering it from blue (fastest) to red (slowest). Metrics without
// an id are ignored.
func (d *DOTDrawer) AddMeasure(msr measure.Measure, ids map[string]string) error {
	metrics := msr.AllMetrics()
	if len(metrics) == 0 {
		return nil
	}

	var minValue, maxValue time.Duration

	first := true

	for _, metric := range metrics {
		avg := metric.AVGDuration()
		if first || avg < minValue {
			minValue = avg
		}

		if first || avg > maxValue {
			maxValue = avg
		}

		first = false
	}

	for _, name := range msr.Names() {
		id, ok := ids[name]
		if !ok {
			continue
		}

		metric := metrics[name]
		avg := measure.Round(metric.AVGDuration())

		err := d.store.UpdateVertex(id, graph.VertexAttribute("xlabel", avg.String()))
		if err != nil {
			return errors.Wrapf(err, "unable to label stage %s", name)
		}

		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(metric.AVGDuration()-minValue) / float64(maxValue-minValue)
		}

		edgeColor, err := colors.RGB(uint8(maxRGB*fraction), 0, uint8(maxRGB-maxRGB*fraction)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		err = d.updateIncoming(id,
			graph.EdgeAttribute("label", avg.String()),
			graph.EdgeAttribute("fontcolor", "blue"),
			graph.EdgeAttribute("color", edgeColor.ToHEX().String()),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *DOTDrawer) updateIncoming(target string, options ...func(*graph.EdgeProperties)) error {
	edges, err := d.graph.Edges()
	if err != nil {
		return errors.Wrap(err, "unable to list edges")
	}

	for _, edge := range edges {
		if edge.Target != target {
			continue
		}

		err := d.graph.UpdateEdge(edge.Source, edge.Target, options...)
		if err != nil {
			return errors.Wrapf(err, "unable to update edge from %s to %s", edge.Source, edge.Target)
		}
	}

	return nil
}

// Draw writes the DOT description of the graph to w. Stages and links are
// written in the order they were added.
func (d *DOTDrawer) Draw(w io.Writer) error {
	desc, err := d.describe()
	if err != nil {
		return errors.Wrap(err, "unable to generate DOT description")
	}

	return renderDOT(w, desc)
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
{{- range $k, $v := .Attributes}}
	{{$k}}="{{$v}}";
{{- end}}
{{- range $s := .Statements}}
	"{{quote .Source}}" {{if .Target}}{{$.EdgeOperator}} "{{quote .Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{quote $v}}", {{end}}weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}}{{range $k, $v := .SourceAttributes}}{{$k}}="{{quote $v}}", {{end}}weight={{.SourceWeight}} ]{{end}};
{{- end}}
}
`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func (d *DOTDrawer) describe() (description, error) {
	desc := description{
		GraphType:    "digraph",
		Attributes:   map[string]string{"rankdir": "LR"},
		EdgeOperator: "->",
	}

	vertices, err := d.store.ListVertices()
	if err != nil {
		return desc, errors.Wrap(err, "unable to list vertices")
	}

	edges, err := d.graph.Edges()
	if err != nil {
		return desc, errors.Wrap(err, "unable to list edges")
	}

	for _, vertex := range vertices {
		_, props, err := d.graph.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attributes := make(map[string]string, len(props.Attributes))
		htmlAttributes := make(map[string]string)

		for k, v := range props.Attributes {
			attributes[k] = v
		}

		if xlabel, ok := attributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`,
				html.EscapeString(attributes["label"]), html.EscapeString(xlabel))

			delete(attributes, "xlabel")
			delete(attributes, "label")
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     props.Weight,
			SourceAttributes: attributes,
			HTMLAttributes:   htmlAttributes,
		})

		for _, edge := range edges {
			if edge.Source != vertex {
				continue
			}

			desc.Statements = append(desc.Statements, statement{
				Source:         edge.Source,
				Target:         edge.Target,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Funcs(template.FuncMap{"quote": escapeDOT}).Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escapeDOT escapes s for a double quoted DOT string.
func escapeDOT(s string) string {
	return dotEscaper.Replace(s)
}

var _ Drawer = (*DOTDrawer)(nil)
