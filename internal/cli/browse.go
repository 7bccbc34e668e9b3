package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/service"
)

var (
	listCategory string
	listFeatured bool
	listSort     string
	listPage     int
	listLimit    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List apps in the catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		params := service.ListParams{
			Category: listCategory,
			Sort:     listSort,
			Page:     listPage,
			Limit:    listLimit,
		}
		if listFeatured {
			params.Featured = "true"
		}

		list, err := source().Apps(cmd.Context(), params)
		if err != nil {
			return err
		}

		printApps(cmd, list.Apps)
		cmd.Printf("\nPage %d of %d (%d apps total)\n", list.CurrentPage, list.TotalPages, list.TotalApps)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over name, description, and developer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apps, err := source().Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(apps) == 0 {
			cmd.Println("No apps found.")
			return nil
		}
		printApps(cmd, apps)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one app in full, including its reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := source()

		app, err := src.App(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		cmd.Printf("%s %s\n", app.Icon, app.Name)
		cmd.Printf("  by %s · %s · v%s · %s\n", app.Developer, app.Category, app.Version, app.Size)
		cmd.Printf("  ★ %.1f (%d reviews) · %d downloads\n", app.Rating, app.Reviews, app.Downloads)
		if app.Description != "" {
			cmd.Printf("\n%s\n", app.Description)
		}
		if app.WhatsNew != "" {
			cmd.Printf("\nWhat's new:\n%s\n", app.WhatsNew)
		}
		if len(app.Permissions) > 0 {
			cmd.Printf("\nPermissions: %s\n", strings.Join(app.Permissions, ", "))
		}

		reviews, err := src.Reviews(cmd.Context(), app.ID)
		if err != nil {
			return err
		}
		if len(reviews) > 0 {
			cmd.Println("\nReviews:")
			for _, review := range reviews {
				name := review.UserName
				if name == "" {
					name = review.UserID
				}
				cmd.Printf("  ★%d %s — %s\n", review.Rating, name, review.Comment)
			}
		}
		return nil
	},
}

func shelfCommand(use, short string, fetch func(cmd *cobra.Command) ([]model.App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			apps, err := fetch(cmd)
			if err != nil {
				return err
			}
			printApps(cmd, apps)
			return nil
		},
	}
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with their app counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		categories, err := source().Categories(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDISPLAY\tAPPS\tDESCRIPTION")
		for _, c := range categories {
			fmt.Fprintf(w, "%s\t%s %s\t%d\t%s\n", c.Name, c.Icon, c.DisplayName, c.AppCount, c.Description)
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog-wide statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		stats, err := source().Stats(cmd.Context())
		if err != nil {
			return err
		}

		cmd.Printf("Apps: %d\n", stats.TotalApps)
		cmd.Printf("Total downloads: %d\n", stats.TotalDownloads)
		cmd.Println("By category:")
		for _, cs := range stats.CategoryStats {
			cmd.Printf("  %-16s %d\n", cs.Category, cs.Count)
		}
		return nil
	},
}

// printApps renders a compact table: id, name, category, version, rating,
// downloads.
func printApps(cmd *cobra.Command, apps []model.App) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tVERSION\tRATING\tDOWNLOADS")
	for _, app := range apps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%d\n",
			app.ID, app.Name, app.Category, app.Version, app.Rating, app.Downloads)
	}
	w.Flush()
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "filter by category")
	listCmd.Flags().BoolVar(&listFeatured, "featured", false, "only featured apps")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort field, '-' prefix for descending (e.g. -downloads, name)")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "apps per page")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(shelfCommand("featured", "Show the featured shelf", func(cmd *cobra.Command) ([]model.App, error) {
		return source().Featured(cmd.Context())
	}))
	rootCmd.AddCommand(shelfCommand("popular", "Show the most-downloaded apps", func(cmd *cobra.Command) ([]model.App, error) {
		return source().Popular(cmd.Context())
	}))
	rootCmd.AddCommand(shelfCommand("recent", "Show recently updated apps", func(cmd *cobra.Command) ([]model.App, error) {
		return source().Recent(cmd.Context())
	}))
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(statsCmd)
}
