package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"

	"github.com/haymanh/success/internal/app/system/oppfilter"
	"github.com/haymanh/success/internal/domain/models"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type opportunitiesFlags struct {
	criteria oppfilter.Criteria
	status   string
	category string
	search   string
	output   string
}

func newOpportunitiesCmd(opts *options) *cobra.Command {
	f := &opportunitiesFlags{criteria: oppfilter.Default()}

	cmd := &cobra.Command{
		Use:     "opportunities",
		Aliases: []string{"opps"},
		Short:   "List opportunities matching the listing filters",
		Long: `Fetch every page of the opportunity listing and narrow it with the
listing page's filters. A filter left at "all" does not constrain the
result, and a record that does not carry an optional attribute is never
excluded by a filter on that attribute.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			return runOpportunities(cmd, opts, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.criteria.Type, "type", oppfilter.All, "opportunity type (competition also matches hackathon, startup matches incubator, conference matches job_fair)")
	fl.StringVar(&f.criteria.AgeGroup, "age-group", oppfilter.All, "age group")
	fl.StringVar(&f.criteria.AttendanceType, "attendance-type", oppfilter.All, "attendance type")
	fl.StringVar(&f.criteria.CostType, "cost-type", oppfilter.All, "cost type")
	fl.StringVar(&f.criteria.DurationType, "duration-type", oppfilter.All, "duration type")
	fl.StringVar(&f.criteria.LocationType, "location-type", oppfilter.All, "location type")
	fl.StringVar(&f.status, "status", models.OpportunityActive, `status filter applied by the server ("all" for every status)`)
	fl.StringVar(&f.category, "category", "", "category filter applied by the server")
	fl.StringVar(&f.search, "search", "", "text search applied by the server")
	fl.StringVarP(&f.output, "output", "o", "table", "output format: table or json")
	return cmd
}

func runOpportunities(cmd *cobra.Command, opts *options, f *opportunitiesFlags) (err error) {
	if f.output != "table" && f.output != "json" {
		return errors.Errorf("unknown output format %q", f.output)
	}

	c, err := opts.newClient()
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("status", f.status)
	if f.category != "" {
		q.Set("category", f.category)
	}
	if f.search != "" {
		q.Set("search", f.search)
	}

	all, err := c.AllOpportunities(cmd.Context(), q)
	if err != nil {
		return err
	}
	matched := oppfilter.Apply(all, f.criteria)
	opts.logger.Debug("opportunities filtered",
		zap.Int("fetched", len(all)),
		zap.Int("matched", len(matched)))

	out := cmd.OutOrStdout()
	if f.output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err = enc.Encode(matched); err != nil {
			return errors.Wrap(err, "failed to write output")
		}
		return nil
	}
	return printOpportunities(out, matched)
}

func printOpportunities(w io.Writer, opps []models.Opportunity) (err error) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCATEGORY\tDEADLINE\tTITLE")
	for _, o := range opps {
		deadline := "-"
		if !o.ApplicationDeadline.IsZero() {
			deadline = o.ApplicationDeadline.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID.Hex(), dash(o.Type), dash(o.Category), deadline, o.Title)
	}
	if err = tw.Flush(); err != nil {
		return errors.Wrap(err, "failed to write output")
	}
	fmt.Fprintf(w, "%d opportunities\n", len(opps))
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
