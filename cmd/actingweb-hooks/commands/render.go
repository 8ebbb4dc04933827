package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// renderer prints dispatch results and hook listings.
type renderer struct {
	w io.Writer
}

func newRenderer(w io.Writer, disableColor bool) *renderer {
	if disableColor {
		color.NoColor = true
	}
	return &renderer{w: w}
}

var (
	handledColor = color.New(color.FgGreen, color.Bold)
	missColor    = color.New(color.FgYellow, color.Bold)
	deniedColor  = color.New(color.FgRed, color.Bold)
	failColor    = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	nameColor    = color.New(color.FgCyan)
)

// Result prints res in human-readable form.
func (r *renderer) Result(req hook.Request, res hook.Result) {
	target := fmt.Sprintf("%s:%s", req.Category, req.Name)

	switch res.Kind {
	case hook.ResultHandled:
		fmt.Fprintf(r.w, "%s %s %s\n", handledColor.Sprint("handled"), nameColor.Sprint(target), dimColor.Sprintf("by %s", res.HookID))
		data, err := json.MarshalIndent(res.Value, "", "  ")
		if err != nil {
			fmt.Fprintf(r.w, "%v\n", res.Value)
		} else {
			fmt.Fprintln(r.w, string(data))
		}
	case hook.ResultDenied:
		fmt.Fprintf(r.w, "%s %s\n", deniedColor.Sprint("denied"), nameColor.Sprint(target))
	default:
		fmt.Fprintf(r.w, "%s %s\n", missColor.Sprint("unhandled"), nameColor.Sprint(target))
	}

	if res.Failures > 0 {
		fmt.Fprintln(r.w, failColor.Sprintf("%d hook(s) failed, see logs (--print-logs)", res.Failures))
	}
	fmt.Fprintln(r.w, dimColor.Sprintf("dispatch %s: %d/%d hooks invoked in %s",
		res.DispatchID, res.Invoked, res.Candidates, res.Duration))
}

type resultJSON struct {
	DispatchID string `json:"dispatchID"`
	Result     string `json:"result"`
	Value      any    `json:"value,omitempty"`
	HookID     string `json:"hookID,omitempty"`
	Candidates int    `json:"candidates"`
	Invoked    int    `json:"invoked"`
	Failures   int    `json:"failures"`
	DurationMS int64  `json:"durationMs"`
}

// ResultJSON prints res as one JSON object.
func (r *renderer) ResultJSON(res hook.Result) error {
	out := resultJSON{
		DispatchID: res.DispatchID,
		Result:     res.Kind.String(),
		Value:      res.Value,
		HookID:     res.HookID,
		Candidates: res.Candidates,
		Invoked:    res.Invoked,
		Failures:   res.Failures,
		DurationMS: res.Duration.Milliseconds(),
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Hooks prints regs grouped by category in dispatch order. A non-empty
// filter restricts the listing to one category.
func (r *renderer) Hooks(regs []*hook.Registration, filter types.Category) {
	byCategory := make(map[types.Category][]*hook.Registration)
	for _, reg := range regs {
		if filter != "" && reg.Category != filter {
			continue
		}
		byCategory[reg.Category] = append(byCategory[reg.Category], reg)
	}
	if len(byCategory) == 0 {
		fmt.Fprintln(r.w, dimColor.Sprint("no hooks registered"))
		return
	}

	for _, c := range types.Categories {
		list := byCategory[c]
		if len(list) == 0 {
			continue
		}
		// Wildcards run after every exact name.
		sort.SliceStable(list, func(i, j int) bool {
			return !list[i].Wildcard() && list[j].Wildcard()
		})
		fmt.Fprintln(r.w, handledColor.Sprint(string(c)))
		for _, reg := range list {
			fmt.Fprintf(r.w, "  %-24s %-12s %-8s %s\n",
				nameColor.Sprint(reg.Name), reg.Callable.Kind(), reg.Source, dimColor.Sprint(reg.ID))
		}
	}
}
