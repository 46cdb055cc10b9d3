package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"tether/internal/behavior"
	"tether/internal/medpc"
)

func newReadCommand(ctx *commandContext) *cobra.Command {
	var (
		dateFlag    string
		timeFlag    string
		subjectFlag string
		boxFlag     string
		msnFlag     string
	)

	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Locate and parse one session in a MedPC log file",
		Long: "Locates the session whose header matches every given condition and\n" +
			"parses it with the array-letter map registered for the program (MSN).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if msnFlag == "" {
				return errors.New("--msn is required to resolve array letters")
			}

			conditions := medpc.Conditions{}
			for label, value := range map[string]string{
				"Start Date": dateFlag,
				"Start Time": timeFlag,
				"Subject":    subjectFlag,
				"Box":        boxFlag,
			} {
				if value != "" {
					conditions[label] = value
				}
			}
			if len(conditions) == 0 {
				return errors.New("at least one of --date, --time, --subject, or --box is required")
			}

			registry, err := behavior.LoadRegistry(cfg.Dataset.RegistryPath)
			if err != nil {
				return err
			}
			session, err := behavior.ReadMedPC(args[0], conditions, cfg.Dataset.StartVariable, msnFlag, registry)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subject:  %s\n", session.Subject)
			fmt.Fprintf(out, "Program:  %s (stage %s)\n", session.MSN, session.Stage)
			fmt.Fprintf(out, "Box:      %s\n", session.Box)
			fmt.Fprintf(out, "Start:    %s\n", session.StartAt(cfg.Location()).Format(time.RFC3339))

			names := make([]string, 0, len(session.Arrays))
			for name := range session.Arrays {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				events := session.Arrays[name]
				first, last := "", ""
				if len(events) > 0 {
					first = fmt.Sprintf("%.3f", events[0])
					last = fmt.Sprintf("%.3f", events[len(events)-1])
				}
				rows = append(rows, []string{name, fmt.Sprintf("%d", len(events)), first, last})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Field", "Events", "First", "Last"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Session start date condition (MM/DD/YY)")
	cmd.Flags().StringVar(&timeFlag, "time", "", "Session start time condition (HH:MM:SS)")
	cmd.Flags().StringVar(&subjectFlag, "subject", "", "Subject id condition")
	cmd.Flags().StringVar(&boxFlag, "box", "", "Operant box condition")
	cmd.Flags().StringVar(&msnFlag, "msn", "", "Behavioral program name (required)")
	return cmd
}
