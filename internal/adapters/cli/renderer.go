package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/metrics"
)

const barWidth = 30

// Renderer writes styled pipeline output to a terminal
type Renderer struct {
	out    io.Writer
	styles styles
}

// NewRenderer creates a renderer for out. Colours are dropped when out is not a terminal.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Trace returns an observer that prints one line per step transition
func (r *Renderer) Trace() core.Observer {
	var previous [4]core.StepStatus
	headerShown := false

	return func(snap core.Session) {
		if !headerShown {
			fmt.Fprintln(r.out, r.styles.title.Render("Live Execution Trace"))
			headerShown = true
		}
		for i, step := range snap.Steps {
			if i >= len(previous) || previous[i] == step.Status {
				continue
			}
			previous[i] = step.Status
			switch step.Status {
			case core.StepActive:
				fmt.Fprintf(r.out, "  %s %s\n", r.styles.active.Render("●"), r.styles.active.Render(step.Name))
			case core.StepCompleted:
				fmt.Fprintf(r.out, "  %s %s\n", r.styles.safe.Render("✓"), step.Name)
			}
		}
	}
}

// Session prints the outcome of a finished session
func (r *Renderer) Session(sess *core.Session) {
	switch sess.Status {
	case core.StatusSuccess:
		r.Verdict(sess.Result)
	case core.StatusError:
		r.Failure(sess.Error)
	default:
		fmt.Fprintln(r.out, r.styles.subtitle.Render("Awaiting Input"))
	}
}

// Verdict prints the verdict, explanation, features and telemetry of a result
func (r *Renderer) Verdict(res *core.ClassificationResult) {
	heading := r.styles.safe.Render("SAFE CONTENT")
	if res.IsSpam {
		heading = r.styles.spam.Render("SPAM DETECTED")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %.1f%% Confidence\n\n", heading, res.Confidence*100)
	fmt.Fprintf(&b, "%s\n%s\n\n", r.styles.label.Render("Expert Explanation"), res.Explanation)

	fmt.Fprintln(&b, r.styles.label.Render("Top Feature Indicators"))
	if len(res.TopFeatures) == 0 {
		fmt.Fprintln(&b, r.styles.subtle.Render("none"))
	} else {
		tags := make([]string, len(res.TopFeatures))
		for i, f := range res.TopFeatures {
			tags[i] = r.styles.tag.Render(f)
		}
		fmt.Fprintln(&b, lipgloss.JoinHorizontal(lipgloss.Top, tags...))
	}

	model := res.Metadata.Model
	if model == "" {
		model = "unknown"
	}
	fmt.Fprintf(&b, "\n%s\n", r.styles.label.Render("Inference Telemetry"))
	fmt.Fprintf(&b, "Latency:        %dms\n", res.Metadata.ProcessingTimeMs)
	fmt.Fprintf(&b, "Resource Usage: %.0f TKN\n", res.Metadata.TokensCount)
	fmt.Fprintf(&b, "Model Endpoint: %s\n", model)
	fmt.Fprint(&b, "Validation:     Pass")

	fmt.Fprintln(r.out, r.styles.box.Render(b.String()))
}

// Failure prints the user-facing failure message
func (r *Renderer) Failure(message string) {
	body := r.styles.spam.Render("Classification Failed") + "\n" + message
	fmt.Fprintln(r.out, r.styles.box.Render(body))
}

// Dashboard prints the metrics dashboard
func (r *Renderer) Dashboard(d metrics.Dashboard) {
	fmt.Fprintln(r.out, r.styles.title.Render("Model Integrity & Metrics"))
	fmt.Fprintln(r.out, r.styles.subtitle.Render(
		"Metrics are based on the latest validation pass on the UCI SMS/SpamAssassin merged dataset."))
	fmt.Fprintln(r.out)

	fmt.Fprintln(r.out, r.styles.label.Render("Performance"))
	for _, bar := range d.Bars {
		filled := int(bar.Value*barWidth + 0.5)
		if filled > barWidth {
			filled = barWidth
		}
		if filled < 0 {
			filled = 0
		}
		fmt.Fprintf(r.out, "  %-10s %s%s %5.1f%%\n",
			bar.Name,
			r.styles.active.Render(strings.Repeat("█", filled)),
			r.styles.subtle.Render(strings.Repeat("░", barWidth-filled)),
			bar.Percent)
	}
	fmt.Fprintln(r.out)

	fmt.Fprintf(r.out, "%s (%d samples)\n", r.styles.label.Render("Confusion Matrix"), d.SampleCount)
	for _, s := range d.Slices {
		swatch := r.styles.subtle.Foreground(lipgloss.Color(s.Color)).Render("■")
		fmt.Fprintf(r.out, "  %s %-15s %5d  %5.1f%%\n", swatch, s.Name, s.Value, s.Share*100)
	}
	fmt.Fprintln(r.out)

	fmt.Fprintln(r.out, r.styles.label.Render("Feature Extraction"))
	fmt.Fprintln(r.out, d.Explanation)
	fmt.Fprintln(r.out)
	for _, tag := range d.Tags {
		fmt.Fprintf(r.out, "  • %s\n", tag)
	}
}
