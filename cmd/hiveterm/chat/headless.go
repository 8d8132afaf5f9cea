package chat

import (
	"context"
	"fmt"
	"io"

	"hiveterm/internal/session"
	"hiveterm/internal/submit"
	"hiveterm/internal/widget"
)

// RunHeadless consumes a session without a terminal UI: prose passes
// through verbatim and every artifact renders as readable structured text.
// No widget is created, so nothing is interactive; each interactive
// artifact settles with an aborted result on ch so the other side is
// never left waiting. Returns the source error, if any.
func RunHeadless(events <-chan session.Event, out io.Writer, ch *submit.Channel) error {
	for ev := range events {
		switch ev.Kind {
		case session.EventText:
			fmt.Fprint(out, ev.Text)

		case session.EventArtifact:
			fmt.Fprintf(out, "\n--- artifact %s (%s) ---\n", ev.Artifact.ID, ev.Artifact.Kind)
			fmt.Fprintln(out, widget.FallbackView(ev.Artifact))
			if ev.Artifact.Interactive() {
				fmt.Fprintln(out, "(interactive component; no terminal attached, skipping input)")
				if ch != nil {
					ch.Send(context.Background(), submit.Aborted(ev.Artifact.ID))
				}
			}
			fmt.Fprintln(out, "---")

		case session.EventRejection:
			fmt.Fprintf(out, "\n--- rejected block: %s ---\n", ev.Rejection.Summary())
			fmt.Fprintln(out, string(ev.Rejection.Raw))
			fmt.Fprintln(out, "---")

		case session.EventEnd:
			fmt.Fprintln(out)
			return ev.Err
		}
	}
	return nil
}
