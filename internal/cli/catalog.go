package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// ListLanguages prints the languages offered by the evaluator.
func ListLanguages(ctx context.Context, app *App) error {
	langs, err := app.Transport.ListLanguages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list languages: %w", err)
	}

	tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tNATIVE")
	for _, l := range langs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Code, l.Name, l.NativeName)
	}
	return tw.Flush()
}

// ListScenarios prints the scenarios available in lang.
func ListScenarios(ctx context.Context, app *App, lang string) error {
	scenarios, err := app.Transport.ListScenarios(ctx, lang)
	if err != nil {
		return fmt.Errorf("failed to list scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		fmt.Fprintf(app.Out, "No scenarios available in %q.\n", lang)
		return nil
	}

	tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tDIFFICULTY\tMINUTES")
	for _, s := range scenarios {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.Title, s.Category, s.Difficulty, s.EstimatedMinutes)
	}
	return tw.Flush()
}
