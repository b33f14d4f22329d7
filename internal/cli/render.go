package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/models"
)

const emptySlot = "--"

type renderer struct {
	red   *color.Color
	label *color.Color
	dim   *color.Color
	win   *color.Color
}

func newRenderer(colored bool) *renderer {
	r := &renderer{
		red:   color.New(color.FgHiRed),
		label: color.New(color.FgCyan),
		dim:   color.New(color.Faint),
		win:   color.New(color.FgHiGreen, color.Bold),
	}
	for _, c := range []*color.Color{r.red, r.label, r.dim, r.win} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *renderer) card(c models.Card) string {
	if c.Color() == models.Red {
		return r.red.Sprint(c.String())
	}
	return c.String()
}

func (r *renderer) cards(cs []models.Card) string {
	if len(cs) == 0 {
		return r.dim.Sprint(emptySlot)
	}
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, r.card(c))
	}
	return strings.Join(parts, " ")
}

func (r *renderer) top(cs []models.Card) string {
	if len(cs) == 0 {
		return r.dim.Sprint(emptySlot)
	}
	return r.card(cs[len(cs)-1])
}

// board writes the layout: stock and waste, foundation tops, free cells and
// then each column bottom to top.
func (r *renderer) board(w io.Writer, st game.BoardState) {
	fmt.Fprintf(w, "%s %d  %s %d/%d (%s)\n",
		r.label.Sprint("Stock"), st.StockSize,
		r.label.Sprint("Pass"), st.Throughs, st.Rules.ThroughLimit(), st.StockState)
	fmt.Fprintf(w, "%s (%d) %s\n", r.label.Sprint("Waste"), len(st.Waste), r.cards(st.WasteVisible))

	found := make([]string, 0, len(st.Foundations))
	for i, f := range st.Foundations {
		found = append(found, fmt.Sprintf("%s:%s", models.Suits[i].Letter(), r.top(f)))
	}
	fmt.Fprintf(w, "%s %s\n", r.label.Sprint("Found"), strings.Join(found, "  "))

	if len(st.Cells) > 0 {
		cells := make([]string, 0, len(st.Cells))
		for _, c := range st.Cells {
			cells = append(cells, "["+r.top(c)+"]")
		}
		fmt.Fprintf(w, "%s %s\n", r.label.Sprint("Cells"), strings.Join(cells, " "))
	}

	for i, col := range st.Columns {
		fmt.Fprintf(w, "%s %s\n", r.label.Sprintf("Col %d", i), r.cards(col))
	}
	fmt.Fprintf(w, "%s %d\n", r.label.Sprint("Moves"), st.Moves)
	if st.Won {
		fmt.Fprintln(w, r.win.Sprintf("Won in %d moves!", st.Moves))
	}
}

func (r *renderer) hint(w io.Writer, h game.Hint) {
	if h.Draw {
		fmt.Fprintln(w, "hint: draw")
		return
	}
	var card string
	if h.Card != nil {
		card = r.card(*h.Card)
	}
	fmt.Fprintf(w, "hint: move %s", card)
	if h.Count > 1 {
		fmt.Fprintf(w, " (%d cards)", h.Count)
	}
	if h.From != nil && h.To != nil {
		fmt.Fprintf(w, " from %s to %s", h.From, h.To)
	}
	fmt.Fprintln(w)
}
